package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

// Repository defines the contribution ledger: who invested how much, their
// equity split, the dated cash-flow history, and free-text config overrides.
type Repository interface {
	ListContributors(ctx context.Context) ([]domain.ContributorRecord, error)
	ListCashFlowEvents(ctx context.Context) ([]domain.CashFlowEvent, error)
	GetConfigOverride(ctx context.Context, key string) (string, error)
	ListDonations(ctx context.Context, address string) ([]domain.Donation, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL ledger repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// ListContributors returns all contributors ordered by equity share,
// largest first.
func (r *PgRepository) ListContributors(ctx context.Context) ([]domain.ContributorRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT address, total_inv_usd, equity_perc
		 FROM contributions
		 ORDER BY equity_perc DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing contributors: %w", err)
	}
	defer rows.Close()

	var contributors []domain.ContributorRecord
	for rows.Next() {
		var c domain.ContributorRecord
		var invested, equity decimal.Decimal
		if err := rows.Scan(&c.Address, &invested, &equity); err != nil {
			return nil, fmt.Errorf("scanning contributor: %w", err)
		}
		c.TotalInvestedUsd = invested.InexactFloat64()
		c.EquityPercent = equity.InexactFloat64()
		contributors = append(contributors, c)
	}
	return contributors, rows.Err()
}

// ListCashFlowEvents returns the full contribution history ordered by date.
// Amounts are positive inflows as recorded; the return engine negates them.
func (r *PgRepository) ListCashFlowEvents(ctx context.Context) ([]domain.CashFlowEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_date, amount
		 FROM cash_flow_events
		 ORDER BY event_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing cash flow events: %w", err)
	}
	defer rows.Close()

	var events []domain.CashFlowEvent
	for rows.Next() {
		var e domain.CashFlowEvent
		var amount decimal.Decimal
		if err := rows.Scan(&e.Date, &amount); err != nil {
			return nil, fmt.Errorf("scanning cash flow event: %w", err)
		}
		e.Amount = amount.InexactFloat64()
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetConfigOverride returns the config value under key, or the empty string
// when the key is not set.
func (r *PgRepository) GetConfigOverride(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM vault_config WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting config %s: %w", key, err)
	}
	return value, nil
}

// ListDonations returns all donations recorded for the address, newest
// first.
func (r *PgRepository) ListDonations(ctx context.Context, address string) ([]domain.Donation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, address, username, transaction_date, contribution_amount,
		        currency, eth_price_usd, usd_donate_value, total_contribution, funding_round_id
		 FROM donations
		 WHERE LOWER(address) = LOWER($1)
		 ORDER BY transaction_date DESC`, address)
	if err != nil {
		return nil, fmt.Errorf("listing donations for %s: %w", address, err)
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		var d domain.Donation
		var txDate time.Time
		var contribution, ethPrice, usdValue, total decimal.Decimal
		if err := rows.Scan(&d.ID, &d.Address, &d.Username, &txDate, &contribution,
			&d.Currency, &ethPrice, &usdValue, &total, &d.FundingRoundID); err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}
		d.TransactionDate = txDate.Format("2006-01-02")
		d.ContributionAmount = contribution.InexactFloat64()
		d.EthPriceUsd = ethPrice.InexactFloat64()
		d.UsdDonateValue = usdValue.InexactFloat64()
		d.TotalContribution = total.InexactFloat64()
		donations = append(donations, d)
	}
	return donations, rows.Err()
}
