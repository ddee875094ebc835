package vault

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/s4rv4d/kobe-dashboard/internal/cache"
	"github.com/s4rv4d/kobe-dashboard/internal/domain"
	"github.com/s4rv4d/kobe-dashboard/internal/portfolio"
)

const (
	statsTTL         = 60 * time.Second
	contributionsTTL = 120 * time.Second
	configTTL        = 300 * time.Second

	// currentValueConfigKey is the ledger config entry holding a manual
	// override of the vault's current value.
	currentValueConfigKey = "vault_current_value"
)

// PortfolioService values the vault's on-chain holdings.
type PortfolioService interface {
	GetPortfolio(ctx context.Context, address string) (portfolio.Portfolio, error)
}

// Ledger provides contribution history and config overrides.
type Ledger interface {
	ListContributors(ctx context.Context) ([]domain.ContributorRecord, error)
	ListCashFlowEvents(ctx context.Context) ([]domain.CashFlowEvent, error)
	GetConfigOverride(ctx context.Context, key string) (string, error)
}

// ContributionsResponse lists every contributor's split of the vault.
type ContributionsResponse struct {
	Contributors []domain.ContributorStats `json:"contributors"`
	Total        int                       `json:"total"`
}

// Service computes fund-level and per-contributor return statistics for the
// configured vault. It is a pure function of its collaborators per call;
// the shared cache only memoizes results.
type Service struct {
	vaultAddress string
	portfolio    PortfolioService
	ledger       Ledger
	cache        *cache.Cache

	now func() time.Time
}

// NewService creates a new vault statistics Service. All dependencies are
// required.
func NewService(vaultAddress string, portfolioSvc PortfolioService, ledger Ledger, c *cache.Cache) *Service {
	if portfolioSvc == nil {
		panic("vault.NewService: portfolio is nil")
	}
	if ledger == nil {
		panic("vault.NewService: ledger is nil")
	}
	if c == nil {
		panic("vault.NewService: cache is nil")
	}
	return &Service{
		vaultAddress: vaultAddress,
		portfolio:    portfolioSvc,
		ledger:       ledger,
		cache:        c,
		now:          time.Now,
	}
}

// GetStats computes the vault's current value, invested amount, return
// multiple, and money-weighted annualized return. The portfolio valuation,
// contributor list, cash-flow history, and manual override are fetched
// concurrently; any collaborator failure fails the whole computation.
func (s *Service) GetStats(ctx context.Context) (domain.VaultStats, error) {
	key := "vault:stats:" + strings.ToLower(s.vaultAddress)
	return cache.GetOrSet(ctx, s.cache, key, statsTTL, func(ctx context.Context) (domain.VaultStats, error) {
		inputs, err := s.fetchInputs(ctx, true)
		if err != nil {
			return domain.VaultStats{}, err
		}

		currentValue := resolveCurrentValue(inputs.override, inputs.portfolio.TotalValueUsd)
		invested := lo.SumBy(inputs.contributors, func(c domain.ContributorRecord) float64 {
			return c.TotalInvestedUsd
		})

		multiple := 0.0
		if invested > 0 {
			multiple = currentValue / invested
		}

		return domain.VaultStats{
			CurrentValue:   currentValue,
			InvestedAmount: invested,
			Multiple:       multiple,
			Xirr:           s.computeXirr(inputs.events, currentValue),
		}, nil
	})
}

// GetContributions splits the vault's current value across contributors by
// equity percentage.
func (s *Service) GetContributions(ctx context.Context) (ContributionsResponse, error) {
	key := "vault:contributions:" + strings.ToLower(s.vaultAddress)
	return cache.GetOrSet(ctx, s.cache, key, contributionsTTL, func(ctx context.Context) (ContributionsResponse, error) {
		inputs, err := s.fetchInputs(ctx, false)
		if err != nil {
			return ContributionsResponse{}, err
		}

		currentValue := resolveCurrentValue(inputs.override, inputs.portfolio.TotalValueUsd)

		contributors := lo.Map(inputs.contributors, func(c domain.ContributorRecord, _ int) domain.ContributorStats {
			value := c.EquityPercent / 100 * currentValue
			multiple := 0.0
			if c.TotalInvestedUsd > 0 {
				multiple = value / c.TotalInvestedUsd
			}
			return domain.ContributorStats{
				Address:        c.Address,
				InvestedAmount: c.TotalInvestedUsd,
				CurrentValue:   value,
				EquityPercent:  c.EquityPercent,
				Multiple:       multiple,
			}
		})

		return ContributionsResponse{
			Contributors: contributors,
			Total:        len(contributors),
		}, nil
	})
}

type statsInputs struct {
	portfolio    portfolio.Portfolio
	contributors []domain.ContributorRecord
	events       []domain.CashFlowEvent
	override     string
}

// fetchInputs fans out the independent collaborator calls and joins them.
// The cash-flow history is only needed for the XIRR, so contribution splits
// skip it.
func (s *Service) fetchInputs(ctx context.Context, withEvents bool) (statsInputs, error) {
	var inputs statsInputs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inputs.portfolio, err = s.portfolio.GetPortfolio(gctx, s.vaultAddress)
		if err != nil {
			return fmt.Errorf("valuing portfolio: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		inputs.contributors, err = s.ledger.ListContributors(gctx)
		if err != nil {
			return fmt.Errorf("listing contributors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		inputs.override, err = cache.GetOrSet(gctx, s.cache, "config:"+currentValueConfigKey, configTTL,
			func(ctx context.Context) (string, error) {
				return s.ledger.GetConfigOverride(ctx, currentValueConfigKey)
			})
		if err != nil {
			return fmt.Errorf("reading value override: %w", err)
		}
		return nil
	})
	if withEvents {
		g.Go(func() error {
			var err error
			inputs.events, err = s.ledger.ListCashFlowEvents(gctx)
			if err != nil {
				return fmt.Errorf("listing cash flow events: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return statsInputs{}, err
	}
	return inputs, nil
}

// computeXirr assembles the investor-perspective cash-flow series: ledger
// inflows become negative outflows from the investor's pocket, and the
// vault's current value is appended as a terminal redemption dated now. An
// empty ledger yields 0 by definition, not an error.
func (s *Service) computeXirr(events []domain.CashFlowEvent, currentValue float64) float64 {
	if len(events) == 0 {
		return 0
	}

	flows := lo.Map(events, func(e domain.CashFlowEvent, _ int) domain.CashFlowEvent {
		return domain.CashFlowEvent{Date: e.Date, Amount: -e.Amount}
	})
	flows = append(flows, domain.CashFlowEvent{Date: s.now(), Amount: currentValue})

	return domain.Xirr(flows)
}

// resolveCurrentValue prefers the manual override when it parses to a
// positive number, otherwise falls back to the computed portfolio total.
func resolveCurrentValue(override string, portfolioTotal float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(override), 64)
	if err == nil && parsed > 0 {
		return parsed
	}
	return portfolioTotal
}
