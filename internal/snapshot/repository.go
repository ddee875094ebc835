package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored daily record of the vault's statistics.
type Snapshot struct {
	ID           int             `json:"id"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for vault stats snapshots.
type Repository interface {
	Save(ctx context.Context, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context) (*Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	List(ctx context.Context, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save stores the snapshot for the given date, replacing any existing one.
func (r *PgRepository) Save(ctx context.Context, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vault_snapshots (snapshot_date, data)
		 VALUES ($1, $2)
		 ON CONFLICT (snapshot_date) DO UPDATE SET data = $2, created_at = NOW()`,
		date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot for %s: %w", date.Format("2006-01-02"), err)
	}
	return nil
}

// GetLatest returns the most recent snapshot.
func (r *PgRepository) GetLatest(ctx context.Context) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, snapshot_date, data, created_at
		 FROM vault_snapshots
		 ORDER BY snapshot_date DESC
		 LIMIT 1`)
	return scanSnapshot(row)
}

// GetByDate returns the snapshot for a specific date.
func (r *PgRepository) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, snapshot_date, data, created_at
		 FROM vault_snapshots
		 WHERE snapshot_date = $1`, date)
	return scanSnapshot(row)
}

// List returns up to limit snapshots, newest first.
func (r *PgRepository) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, snapshot_date, data, created_at
		 FROM vault_snapshots
		 ORDER BY snapshot_date DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	return &s, nil
}
