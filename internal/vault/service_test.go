package vault

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/cache"
	"github.com/s4rv4d/kobe-dashboard/internal/domain"
	"github.com/s4rv4d/kobe-dashboard/internal/portfolio"
)

const vaultAddr = "0x1111111111111111111111111111111111111111"

type mockPortfolio struct {
	total float64
	err   error
	calls int
}

func (m *mockPortfolio) GetPortfolio(_ context.Context, address string) (portfolio.Portfolio, error) {
	m.calls++
	if m.err != nil {
		return portfolio.Portfolio{}, m.err
	}
	return portfolio.Portfolio{Address: address, TotalValueUsd: m.total}, nil
}

type mockLedger struct {
	contributors []domain.ContributorRecord
	events       []domain.CashFlowEvent
	config       map[string]string
	err          error
}

func (m *mockLedger) ListContributors(_ context.Context) ([]domain.ContributorRecord, error) {
	return m.contributors, m.err
}

func (m *mockLedger) ListCashFlowEvents(_ context.Context) ([]domain.CashFlowEvent, error) {
	return m.events, m.err
}

func (m *mockLedger) GetConfigOverride(_ context.Context, key string) (string, error) {
	return m.config[key], m.err
}

func newTestService(p *mockPortfolio, l *mockLedger) *Service {
	svc := NewService(vaultAddr, p, l, cache.New())
	svc.now = func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGetStats(t *testing.T) {
	ledger := &mockLedger{
		contributors: []domain.ContributorRecord{
			{Address: "0xa", TotalInvestedUsd: 1000, EquityPercent: 50},
			{Address: "0xb", TotalInvestedUsd: 1000, EquityPercent: 50},
		},
		events: []domain.CashFlowEvent{
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: 2000},
		},
	}
	svc := newTestService(&mockPortfolio{total: 4000}, ledger)

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.CurrentValue != 4000 {
		t.Errorf("CurrentValue = %v, want 4000", stats.CurrentValue)
	}
	if stats.InvestedAmount != 2000 {
		t.Errorf("InvestedAmount = %v, want 2000", stats.InvestedAmount)
	}
	if stats.Multiple != 2.0 {
		t.Errorf("Multiple = %v, want 2.0", stats.Multiple)
	}
	// 2000 doubling in one year: the annualized rate is ~100%.
	if math.Abs(stats.Xirr-1.0) > 0.01 {
		t.Errorf("Xirr = %v, want ~1.0", stats.Xirr)
	}
}

func TestGetStatsZeroInvested(t *testing.T) {
	svc := newTestService(&mockPortfolio{total: 4000}, &mockLedger{})

	stats, err := svc.GetStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Multiple != 0 {
		t.Errorf("Multiple = %v, want 0 when nothing invested", stats.Multiple)
	}
	if stats.Xirr != 0 {
		t.Errorf("Xirr = %v, want 0 with an empty ledger", stats.Xirr)
	}
}

func TestGetStatsOverride(t *testing.T) {
	tests := []struct {
		name     string
		override string
		want     float64
	}{
		{"positive override wins", "5000", 5000},
		{"override with spaces", " 5000 ", 5000},
		{"zero falls back", "0", 4000},
		{"negative falls back", "-100", 4000},
		{"garbage falls back", "not-a-number", 4000},
		{"unset falls back", "", 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &mockLedger{config: map[string]string{currentValueConfigKey: tt.override}}
			svc := newTestService(&mockPortfolio{total: 4000}, ledger)

			stats, err := svc.GetStats(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stats.CurrentValue != tt.want {
				t.Errorf("CurrentValue = %v, want %v", stats.CurrentValue, tt.want)
			}
		})
	}
}

func TestGetStatsCached(t *testing.T) {
	p := &mockPortfolio{total: 4000}
	svc := newTestService(p, &mockLedger{})

	for range 3 {
		if _, err := svc.GetStats(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if p.calls != 1 {
		t.Errorf("portfolio valuations = %d, want 1 (stats cached)", p.calls)
	}
}

func TestGetStatsCollaboratorFailure(t *testing.T) {
	svc := newTestService(&mockPortfolio{err: errors.New("valuation failed")}, &mockLedger{})
	if _, err := svc.GetStats(context.Background()); err == nil {
		t.Fatal("expected error when portfolio valuation fails")
	}

	svc = newTestService(&mockPortfolio{total: 1}, &mockLedger{err: errors.New("db down")})
	if _, err := svc.GetStats(context.Background()); err == nil {
		t.Fatal("expected error when ledger fails")
	}
}

func TestGetContributions(t *testing.T) {
	ledger := &mockLedger{
		contributors: []domain.ContributorRecord{
			{Address: "0xa", TotalInvestedUsd: 1000, EquityPercent: 50},
			{Address: "0xb", TotalInvestedUsd: 1000, EquityPercent: 50},
		},
	}
	svc := newTestService(&mockPortfolio{total: 4000}, ledger)

	resp, err := svc.GetContributions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	for _, c := range resp.Contributors {
		if c.CurrentValue != 2000 {
			t.Errorf("%s CurrentValue = %v, want 2000", c.Address, c.CurrentValue)
		}
		if c.Multiple != 2.0 {
			t.Errorf("%s Multiple = %v, want 2.0", c.Address, c.Multiple)
		}
	}
}

func TestGetContributionsZeroInvestedContributor(t *testing.T) {
	ledger := &mockLedger{
		contributors: []domain.ContributorRecord{
			{Address: "0xa", TotalInvestedUsd: 0, EquityPercent: 10},
		},
	}
	svc := newTestService(&mockPortfolio{total: 1000}, ledger)

	resp, err := svc.GetContributions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := resp.Contributors[0]
	if c.Multiple != 0 {
		t.Errorf("Multiple = %v, want 0 for zero invested", c.Multiple)
	}
	if c.CurrentValue != 100 {
		t.Errorf("CurrentValue = %v, want 100", c.CurrentValue)
	}
}

func TestGetContributionsUsesOverride(t *testing.T) {
	ledger := &mockLedger{
		contributors: []domain.ContributorRecord{
			{Address: "0xa", TotalInvestedUsd: 1000, EquityPercent: 100},
		},
		config: map[string]string{currentValueConfigKey: "8000"},
	}
	svc := newTestService(&mockPortfolio{total: 4000}, ledger)

	resp, err := svc.GetContributions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Contributors[0].CurrentValue; got != 8000 {
		t.Errorf("CurrentValue = %v, want override-based 8000", got)
	}
}
