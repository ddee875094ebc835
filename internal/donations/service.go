package donations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/cache"
	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

const donationsTTL = 120 * time.Second

// Ledger reads recorded donations.
type Ledger interface {
	ListDonations(ctx context.Context, address string) ([]domain.Donation, error)
}

// Response lists a donor's recorded donations.
type Response struct {
	Donations []domain.Donation `json:"donations"`
	Total     int               `json:"total"`
	Username  string            `json:"username,omitempty"`
}

// Service serves donation history for donor addresses.
type Service struct {
	ledger Ledger
	cache  *cache.Cache
}

// NewService creates a new donations Service.
func NewService(ledger Ledger, c *cache.Cache) *Service {
	return &Service{ledger: ledger, cache: c}
}

// GetByAddress returns all donations recorded for the address.
func (s *Service) GetByAddress(ctx context.Context, address string) (Response, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return Response{}, err
	}

	key := "donations:" + strings.ToLower(address)
	return cache.GetOrSet(ctx, s.cache, key, donationsTTL, func(ctx context.Context) (Response, error) {
		donations, err := s.ledger.ListDonations(ctx, address)
		if err != nil {
			return Response{}, fmt.Errorf("listing donations: %w", err)
		}

		username := ""
		if len(donations) > 0 {
			username = donations[0].Username
		}

		return Response{
			Donations: donations,
			Total:     len(donations),
			Username:  username,
		}, nil
	})
}
