package domain

import (
	"sort"

	"github.com/samber/lo"
)

// allocationTopN is how many assets appear individually in an allocation
// breakdown before the rest collapse into "Others".
const allocationTopN = 5

// AllocationItem is one slice of the vault's value breakdown. Percentage is
// relative to the portfolio total, 0-100.
type AllocationItem struct {
	Symbol     string  `json:"symbol"`
	ValueUsd   float64 `json:"valueUsd"`
	Percentage float64 `json:"percentage"`
}

// BuildAllocation reduces a priced token list into the top-5-plus-"Others"
// breakdown. A zero total yields an empty list. The sort is stable, so
// assets sharing the boundary value keep their input order when the top-5
// cut is made.
func BuildAllocation(assets []PricedAsset, totalValue float64) []AllocationItem {
	if totalValue == 0 {
		return []AllocationItem{}
	}

	sorted := make([]PricedAsset, len(assets))
	copy(sorted, assets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValueUsd > sorted[j].ValueUsd
	})

	top := sorted
	if len(top) > allocationTopN {
		top = sorted[:allocationTopN]
	}

	allocation := lo.Map(top, func(a PricedAsset, _ int) AllocationItem {
		return AllocationItem{
			Symbol:     a.Symbol,
			ValueUsd:   a.ValueUsd,
			Percentage: a.ValueUsd / totalValue * 100,
		}
	})

	if len(sorted) > allocationTopN {
		othersValue := lo.SumBy(sorted[allocationTopN:], func(a PricedAsset) float64 {
			return a.ValueUsd
		})
		allocation = append(allocation, AllocationItem{
			Symbol:     "Others",
			ValueUsd:   othersValue,
			Percentage: othersValue / totalValue * 100,
		})
	}

	return allocation
}
