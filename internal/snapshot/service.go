package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

// StatsSource computes the current vault statistics.
type StatsSource interface {
	GetStats(ctx context.Context) (domain.VaultStats, error)
}

// Service records daily vault statistics so period-over-period return
// history survives without re-querying upstream providers.
type Service struct {
	stats StatsSource
	repo  Repository
}

// NewService creates a new snapshot Service.
func NewService(stats StatsSource, repo Repository) *Service {
	return &Service{stats: stats, repo: repo}
}

// Generate computes the current vault statistics and stores them under the
// given date.
func (s *Service) Generate(ctx context.Context, date time.Time) (domain.VaultStats, error) {
	stats, err := s.stats.GetStats(ctx)
	if err != nil {
		return domain.VaultStats{}, fmt.Errorf("computing vault stats: %w", err)
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return domain.VaultStats{}, fmt.Errorf("marshaling vault stats: %w", err)
	}

	if err := s.repo.Save(ctx, date, data); err != nil {
		return domain.VaultStats{}, fmt.Errorf("saving snapshot: %w", err)
	}

	return stats, nil
}

// GetLatest retrieves the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (*Snapshot, error) {
	return s.repo.GetLatest(ctx)
}

// GetByDate retrieves the snapshot for a specific date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, date)
}

// List retrieves up to limit snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, limit)
}
