package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/s4rv4d/kobe-dashboard/internal/cache"
	"github.com/s4rv4d/kobe-dashboard/internal/domain"
	"github.com/s4rv4d/kobe-dashboard/internal/safe"
)

const (
	portfolioTTL = 60 * time.Second
	tokensTTL    = 30 * time.Second
	nftsTTL      = 120 * time.Second
)

// BalanceSource resolves a wallet address to its holdings.
type BalanceSource interface {
	GetInfo(ctx context.Context, address string) (safe.Info, error)
	GetBalances(ctx context.Context, address string) ([]domain.AssetBalance, error)
	GetCollectibles(ctx context.Context, address string) ([]domain.NftItem, error)
}

// PriceOracle resolves asset addresses to current USD unit prices. Keys in
// the returned map are lowercased; unknown assets are absent.
type PriceOracle interface {
	GetBatchPricesUsd(ctx context.Context, addresses []string) (map[string]float64, error)
}

// Portfolio is the priced overview of an address: total value plus the top
// holdings breakdown.
type Portfolio struct {
	Address       string                  `json:"address"`
	TotalValueUsd float64                 `json:"totalValueUsd"`
	Change24h     float64                 `json:"change24h"`
	TokenCount    int                     `json:"tokenCount"`
	NftCount      int                     `json:"nftCount"`
	Allocation    []domain.AllocationItem `json:"allocation"`
	LastUpdated   string                  `json:"lastUpdated"`
	Cached        bool                    `json:"cached,omitempty"`
}

// TokensResponse is the full priced token list for an address.
type TokensResponse struct {
	Tokens        []domain.PricedAsset `json:"tokens"`
	TotalValueUsd float64              `json:"totalValueUsd"`
}

// NftsResponse is one page of an address's NFT holdings.
type NftsResponse struct {
	Nfts  []domain.NftItem `json:"nfts"`
	Total int              `json:"total"`
}

// NftQuery filters and paginates NFT listings.
type NftQuery struct {
	Collection string
	Limit      int
	Offset     int
}

// Service values an address: it combines balances from the Safe with USD
// prices into a priced token list and a portfolio total. Results are
// memoized in the shared cache with short TTLs. A collaborator failure
// aborts the whole valuation; there are no partial results.
type Service struct {
	balances BalanceSource
	prices   PriceOracle
	cache    *cache.Cache
}

// NewService creates a new portfolio Service.
func NewService(balances BalanceSource, prices PriceOracle, c *cache.Cache) *Service {
	return &Service{balances: balances, prices: prices, cache: c}
}

// GetSafeInfo returns the Safe contract details for an address.
func (s *Service) GetSafeInfo(ctx context.Context, address string) (safe.Info, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return safe.Info{}, err
	}
	return s.balances.GetInfo(ctx, address)
}

// GetPortfolio produces the priced overview for an address. Balances and
// collectibles are fetched concurrently; prices for the union of asset
// addresses come from one batched oracle call. Cache hits are flagged so
// the caller can tell a fresh valuation from a replayed one.
func (s *Service) GetPortfolio(ctx context.Context, address string) (Portfolio, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return Portfolio{}, err
	}

	key := "portfolio:" + strings.ToLower(address)
	if payload, ok := s.cache.Get(key); ok {
		var p Portfolio
		if err := json.Unmarshal(payload, &p); err == nil {
			p.Cached = true
			return p, nil
		}
	}

	tokens, nfts, err := s.fetchHoldings(ctx, address)
	if err != nil {
		return Portfolio{}, err
	}

	priced, total, err := s.priceTokens(ctx, tokens)
	if err != nil {
		return Portfolio{}, err
	}

	portfolio := Portfolio{
		Address:       address,
		TotalValueUsd: total,
		TokenCount:    len(priced),
		NftCount:      len(nfts),
		Allocation:    domain.BuildAllocation(priced, total),
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
	}

	if payload, err := json.Marshal(portfolio); err == nil {
		s.cache.Set(key, payload, portfolioTTL)
	}
	return portfolio, nil
}

// GetTokens returns the priced token list with per-token percentages,
// sorted by the requested field and order (value, name, or balance).
func (s *Service) GetTokens(ctx context.Context, address, sortBy, order string) (TokensResponse, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return TokensResponse{}, err
	}

	key := fmt.Sprintf("tokens:%s:%s:%s", strings.ToLower(address), sortBy, order)
	return cache.GetOrSet(ctx, s.cache, key, tokensTTL, func(ctx context.Context) (TokensResponse, error) {
		balances, err := s.balances.GetBalances(ctx, address)
		if err != nil {
			return TokensResponse{}, fmt.Errorf("fetching balances for %s: %w", address, err)
		}

		priced, total, err := s.priceTokens(ctx, balances)
		if err != nil {
			return TokensResponse{}, err
		}

		for i := range priced {
			if total > 0 {
				priced[i].Percentage = priced[i].ValueUsd / total * 100
			}
		}
		sortTokens(priced, sortBy, order)

		return TokensResponse{Tokens: priced, TotalValueUsd: total}, nil
	})
}

// GetNfts returns one page of the address's NFT holdings, optionally
// filtered by collection contract. The unfiltered list is cached; filtering
// and pagination run per request.
func (s *Service) GetNfts(ctx context.Context, address string, query NftQuery) (NftsResponse, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return NftsResponse{}, err
	}

	key := "nfts:" + strings.ToLower(address)
	all, err := cache.GetOrSet(ctx, s.cache, key, nftsTTL, func(ctx context.Context) ([]domain.NftItem, error) {
		nfts, err := s.balances.GetCollectibles(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("fetching collectibles for %s: %w", address, err)
		}
		return nfts, nil
	})
	if err != nil {
		return NftsResponse{}, err
	}

	filtered := all
	if query.Collection != "" {
		filtered = lo.Filter(all, func(n domain.NftItem, _ int) bool {
			return strings.EqualFold(n.ContractAddress, query.Collection)
		})
	}

	return NftsResponse{
		Nfts:  paginate(filtered, query.Offset, query.Limit),
		Total: len(filtered),
	}, nil
}

// fetchHoldings fans out the balance and collectible fetches and joins them.
func (s *Service) fetchHoldings(ctx context.Context, address string) ([]domain.AssetBalance, []domain.NftItem, error) {
	var (
		tokens []domain.AssetBalance
		nfts   []domain.NftItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tokens, err = s.balances.GetBalances(gctx, address)
		if err != nil {
			return fmt.Errorf("fetching balances for %s: %w", address, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		nfts, err = s.balances.GetCollectibles(gctx, address)
		if err != nil {
			return fmt.Errorf("fetching collectibles for %s: %w", address, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return tokens, nfts, nil
}

// priceTokens resolves USD prices for every balance in one batched call and
// derives formatted amounts and values. Assets the oracle does not know
// default to price 0; balance order is preserved.
func (s *Service) priceTokens(ctx context.Context, balances []domain.AssetBalance) ([]domain.PricedAsset, float64, error) {
	addresses := lo.Map(balances, func(b domain.AssetBalance, _ int) string {
		return b.Address
	})

	prices, err := s.prices.GetBatchPricesUsd(ctx, addresses)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching prices: %w", err)
	}

	priced := lo.Map(balances, func(b domain.AssetBalance, _ int) domain.PricedAsset {
		price := prices[strings.ToLower(b.Address)]
		formatted := domain.FormatBalance(b.RawBalance, b.Decimals)
		return domain.PricedAsset{
			Address:          b.Address,
			Name:             b.Name,
			Symbol:           b.Symbol,
			Decimals:         b.Decimals,
			LogoURL:          b.LogoURL,
			RawBalance:       b.RawBalance,
			BalanceFormatted: formatted,
			PriceUsd:         price,
			ValueUsd:         formatted * price,
		}
	})

	total := lo.SumBy(priced, func(a domain.PricedAsset) float64 {
		return a.ValueUsd
	})
	return priced, total, nil
}

func sortTokens(tokens []domain.PricedAsset, sortBy, order string) {
	less := func(a, b domain.PricedAsset) bool {
		switch sortBy {
		case "name":
			return a.Name < b.Name
		case "balance":
			return a.BalanceFormatted < b.BalanceFormatted
		default:
			return a.ValueUsd < b.ValueUsd
		}
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if order == "asc" {
			return less(tokens[i], tokens[j])
		}
		return less(tokens[j], tokens[i])
	})
}

func paginate(items []domain.NftItem, offset, limit int) []domain.NftItem {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []domain.NftItem{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
