package domain

import (
	"math"
	"testing"
	"time"
)

func day(offset int) time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestXirrTenPercent(t *testing.T) {
	flows := []CashFlowEvent{
		{Date: day(0), Amount: -1000},
		{Date: day(365), Amount: 1100},
	}

	got := Xirr(flows)
	if math.Abs(got-0.10) > 1e-4 {
		t.Errorf("Xirr = %v, want ~0.10", got)
	}
}

func TestXirrDegenerateInputs(t *testing.T) {
	if got := Xirr(nil); got != 0 {
		t.Errorf("Xirr(nil) = %v, want 0", got)
	}
	if got := Xirr([]CashFlowEvent{}); got != 0 {
		t.Errorf("Xirr(empty) = %v, want 0", got)
	}
	if got := Xirr([]CashFlowEvent{{Date: day(0), Amount: 5000}}); got != 0 {
		t.Errorf("Xirr(single flow) = %v, want 0", got)
	}
}

func TestXirrNegativeReturn(t *testing.T) {
	flows := []CashFlowEvent{
		{Date: day(0), Amount: -1000},
		{Date: day(365), Amount: 500},
	}

	got := Xirr(flows)
	if got >= 0 {
		t.Errorf("Xirr = %v, want negative for a losing investment", got)
	}
	if got < xirrRateFloor {
		t.Errorf("Xirr = %v, want >= %v", got, xirrRateFloor)
	}
}

func TestXirrRateFloor(t *testing.T) {
	// Near-total loss drives the solver hard negative; the floor must hold.
	flows := []CashFlowEvent{
		{Date: day(0), Amount: -1000},
		{Date: day(30), Amount: -1000},
		{Date: day(60), Amount: -1000},
		{Date: day(365), Amount: 0.01},
	}

	got := Xirr(flows)
	if got < xirrRateFloor {
		t.Errorf("Xirr = %v, want clamped at %v", got, xirrRateFloor)
	}
}

func TestXirrUnsortedInput(t *testing.T) {
	sorted := []CashFlowEvent{
		{Date: day(0), Amount: -1000},
		{Date: day(180), Amount: -500},
		{Date: day(365), Amount: 1700},
	}
	shuffled := []CashFlowEvent{sorted[2], sorted[0], sorted[1]}

	if a, b := Xirr(sorted), Xirr(shuffled); a != b {
		t.Errorf("Xirr order-dependent: sorted=%v shuffled=%v", a, b)
	}
}

func TestXirrMultipleContributions(t *testing.T) {
	// Two equal contributions a year apart doubling in value by year two.
	flows := []CashFlowEvent{
		{Date: day(0), Amount: -1000},
		{Date: day(365), Amount: -1000},
		{Date: day(730), Amount: 4000},
	}

	got := Xirr(flows)
	if got <= 0 {
		t.Fatalf("Xirr = %v, want positive", got)
	}

	// The returned rate must actually zero the NPV.
	first := day(0)
	npv := 0.0
	for _, cf := range flows {
		years := float64(daysBetween(first, cf.Date)) / daysPerYear
		npv += cf.Amount / math.Pow(1+got, years)
	}
	if math.Abs(npv) > 1e-3 {
		t.Errorf("NPV at solved rate = %v, want ~0", npv)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want int
	}{
		{day(0), day(0), 0},
		{day(0), day(1), 1},
		{day(0), day(365), 365},
		// Clock time within the day must not change the count.
		{day(0).Add(23 * time.Hour), day(1), 1},
	}

	for _, tt := range tests {
		if got := daysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("daysBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
