package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"libraStats/internal/model"
)

const migrationSQL = `
CREATE TABLE IF NOT EXISTS metric_snapshots (
    id BIGSERIAL PRIMARY KEY,
    chain_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    payload JSONB NOT NULL,
    computed_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (chain_id, kind, computed_at)
);

CREATE INDEX IF NOT EXISTS metric_snapshots_latest
    ON metric_snapshots (chain_id, kind, computed_at DESC);
`

// Store provides Postgres persistence for metric snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the snapshot table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}

// PutSnapshots inserts snapshots, replacing any row with the same
// chain, kind and computation time.
func (s *Store) PutSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		computedAt, err := time.Parse(time.RFC3339, snap.ComputedAt)
		if err != nil {
			return fmt.Errorf("%s snapshot computed_at: %w", snap.Kind, err)
		}
		batch.Queue(`
			INSERT INTO metric_snapshots (chain_id, kind, payload, computed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (chain_id, kind, computed_at)
			DO UPDATE SET payload = EXCLUDED.payload
		`,
			snap.ChainID,
			string(snap.Kind),
			string(snap.Payload),
			computedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	return nil
}
