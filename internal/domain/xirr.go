package domain

import (
	"math"
	"sort"
	"time"
)

// CashFlowEvent is one dated cash flow in USD, signed from the investor's
// perspective: investments are negative, redemptions positive.
type CashFlowEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

const (
	xirrInitialRate   = 0.10
	xirrMaxIterations = 100
	xirrTolerance     = 1e-7
	// xirrDerivativeEps guards the Newton step against a vanishing
	// derivative.
	xirrDerivativeEps = 1e-10
	// xirrRateFloor keeps (1+rate) positive; rates at or below -100% have
	// no meaning.
	xirrRateFloor = -0.99
	daysPerYear   = 365.25
)

// Xirr computes the annualized money-weighted rate of return of an
// irregularly dated cash-flow series by Newton-Raphson iteration on its net
// present value. With fewer than two flows the NPV is independent of the
// rate, so 0 is returned without iterating. If the solver has not converged
// after 100 iterations the last iterate is returned as-is.
func Xirr(flows []CashFlowEvent) float64 {
	if len(flows) < 2 {
		return 0
	}

	sorted := make([]CashFlowEvent, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	first := sorted[0].Date

	// Year fractions from integer day differences keep the result
	// independent of clock time and timezone.
	times := make([]float64, len(sorted))
	for i, cf := range sorted {
		times[i] = float64(daysBetween(first, cf.Date)) / daysPerYear
	}

	npv := func(rate float64) float64 {
		sum := 0.0
		for i, cf := range sorted {
			sum += cf.Amount / math.Pow(1+rate, times[i])
		}
		return sum
	}
	npvDerivative := func(rate float64) float64 {
		sum := 0.0
		for i, cf := range sorted {
			sum += -times[i] * cf.Amount / math.Pow(1+rate, times[i]+1)
		}
		return sum
	}

	rate := xirrInitialRate
	for range xirrMaxIterations {
		value := npv(rate)
		derivative := npvDerivative(rate)

		if math.Abs(derivative) < xirrDerivativeEps {
			break
		}

		next := rate - value/derivative
		if math.Abs(next-rate) < xirrTolerance {
			return next
		}

		rate = next
		if rate < xirrRateFloor {
			rate = xirrRateFloor
		}
	}

	return rate
}

// daysBetween counts whole calendar days from a to b in UTC.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}
