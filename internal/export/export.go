package export

import (
	"context"
	"fmt"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
	"github.com/s4rv4d/kobe-dashboard/internal/portfolio"
	"github.com/s4rv4d/kobe-dashboard/internal/vault"
)

// StatsSource provides the vault-level figures included in a report.
type StatsSource interface {
	GetStats(ctx context.Context) (domain.VaultStats, error)
	GetContributions(ctx context.Context) (vault.ContributionsResponse, error)
}

// PortfolioSource provides the priced holdings breakdown for the vault address.
type PortfolioSource interface {
	GetPortfolio(ctx context.Context, address string) (portfolio.Portfolio, error)
}

// Report is one fully assembled vault report ready for writing.
type Report struct {
	GeneratedAt  time.Time
	Stats        domain.VaultStats
	Contributors []domain.ContributorStats
	Allocation   []domain.AllocationItem
}

// ReportWriter writes an assembled report to a destination.
type ReportWriter interface {
	Write(ctx context.Context, report Report) error
}

// Service assembles vault reports and delegates writing to a ReportWriter.
type Service struct {
	vaultAddress string
	stats        StatsSource
	portfolios   PortfolioSource
	writer       ReportWriter
	now          func() time.Time
}

// NewService creates a new export Service.
func NewService(vaultAddress string, stats StatsSource, portfolios PortfolioSource, writer ReportWriter) *Service {
	if stats == nil {
		panic("export: stats source is nil")
	}
	if portfolios == nil {
		panic("export: portfolio source is nil")
	}
	if writer == nil {
		panic("export: writer is nil")
	}
	return &Service{
		vaultAddress: vaultAddress,
		stats:        stats,
		portfolios:   portfolios,
		writer:       writer,
		now:          time.Now,
	}
}

// Export gathers current vault figures and writes them out.
// Implements worker.ReportExporter.
func (s *Service) Export(ctx context.Context) error {
	report, err := s.buildReport(ctx)
	if err != nil {
		return err
	}
	return s.writer.Write(ctx, report)
}

func (s *Service) buildReport(ctx context.Context) (Report, error) {
	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetching vault stats: %w", err)
	}

	contributions, err := s.stats.GetContributions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("fetching contributions: %w", err)
	}

	pf, err := s.portfolios.GetPortfolio(ctx, s.vaultAddress)
	if err != nil {
		return Report{}, fmt.Errorf("fetching vault portfolio: %w", err)
	}

	return Report{
		GeneratedAt:  s.now().UTC(),
		Stats:        stats,
		Contributors: contributions.Contributors,
		Allocation:   pf.Allocation,
	}, nil
}

// buildStatsRows builds the STATS sheet data.
// Columns: Metric | Value
func buildStatsRows(report Report) [][]any {
	return [][]any{
		{"Metric", "Value"},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
		{"Current Value USD", report.Stats.CurrentValue},
		{"Invested Amount USD", report.Stats.InvestedAmount},
		{"Multiple", report.Stats.Multiple},
		{"XIRR", report.Stats.Xirr},
	}
}

// buildContributorRows builds the CONTRIBUTORS sheet data.
// Columns: Address | Invested USD | Equity % | Current Value USD | Multiple
func buildContributorRows(report Report) [][]any {
	data := make([][]any, 0, len(report.Contributors)+1)
	data = append(data, []any{
		"Address", "Invested USD", "Equity %", "Current Value USD", "Multiple",
	})

	for _, c := range report.Contributors {
		data = append(data, []any{
			c.Address,
			c.InvestedAmount,
			c.EquityPercent,
			c.CurrentValue,
			c.Multiple,
		})
	}

	return data
}

// buildAllocationRows builds the ALLOCATION sheet data.
// Columns: Symbol | Value USD | Percentage
func buildAllocationRows(report Report) [][]any {
	data := make([][]any, 0, len(report.Allocation)+1)
	data = append(data, []any{"Symbol", "Value USD", "Percentage"})

	for _, a := range report.Allocation {
		data = append(data, []any{a.Symbol, a.ValueUsd, a.Percentage})
	}

	return data
}
