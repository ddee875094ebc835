package domain

import (
	"github.com/shopspring/decimal"
)

// balancePrecision caps the fractional digits kept when formatting a raw
// balance for display. Anything beyond 8 digits is dropped, never rounded.
const balancePrecision = 8

// FormatBalance converts a raw smallest-unit balance into a display amount:
// rawBalance / 10^decimals, truncated to 8 fractional digits before the
// float conversion. The division is done in arbitrary precision so huge
// balances lose nothing before the final truncation. Invalid input formats
// to 0.
func FormatBalance(rawBalance string, decimals int32) float64 {
	if rawBalance == "" {
		return 0
	}
	d, err := decimal.NewFromString(rawBalance)
	if err != nil {
		return 0
	}
	f, _ := d.Shift(-decimals).Truncate(balancePrecision).Float64()
	return f
}
