// Package postgres provides a TrustStore backed by PostgreSQL for deployments
// that run several engine replicas against one trust table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

const schema = `
CREATE TABLE IF NOT EXISTS trust_scores (
	app_id TEXT NOT NULL,
	category TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL,
	sample_count INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (app_id, category)
);
CREATE TABLE IF NOT EXISTS trust_events (
	app_id TEXT NOT NULL,
	category TEXT NOT NULL,
	event_id TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (app_id, category, event_id)
);
`

// TrustStore persists trust rows in PostgreSQL. Per-key atomicity comes from
// SELECT ... FOR UPDATE inside a transaction.
type TrustStore struct {
	pool *pgxpool.Pool
}

var _ service.TrustStore = (*TrustStore)(nil)

// NewTrustStore wraps an existing pool.
func NewTrustStore(pool *pgxpool.Pool) *TrustStore {
	return &TrustStore{pool: pool}
}

// NewTrustStoreFromConnString connects to dsn.
func NewTrustStoreFromConnString(ctx context.Context, dsn string) (*TrustStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &TrustStore{pool: pool}, nil
}

// Migrate creates the trust tables when they do not exist.
func (s *TrustStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create trust schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *TrustStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Get returns the row for key or common.ErrNotFound.
func (s *TrustStore) Get(ctx context.Context, key model.TrustKey) (*model.TrustScore, error) {
	score, err := scanScore(s.pool.QueryRow(ctx, `
		SELECT app_id, category, score, sample_count, updated_at
		FROM trust_scores WHERE app_id = $1 AND category = $2
	`, key.AppID, string(key.Category)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, classifyError(fmt.Errorf("get trust score: %w", err))
	}
	return &score, nil
}

// Put writes score, replacing any existing row.
func (s *TrustStore) Put(ctx context.Context, score model.TrustScore) error {
	_, err := s.pool.Exec(ctx, upsertSQL,
		score.AppID, string(score.Category), score.Score, score.SampleCount, score.UpdatedAt.UTC())
	if err != nil {
		return classifyError(fmt.Errorf("save trust score: %w", err))
	}
	return nil
}

const upsertSQL = `
	INSERT INTO trust_scores (app_id, category, score, sample_count, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (app_id, category) DO UPDATE SET
		score = EXCLUDED.score,
		sample_count = EXCLUDED.sample_count,
		updated_at = EXCLUDED.updated_at
`

// Update applies fn to the row for key under a row lock, seeding the row first
// when it does not exist. An eventID already applied to key returns the
// current row without calling fn.
func (s *TrustStore) Update(ctx context.Context, key model.TrustKey, eventID string, seed model.TrustScore, fn service.TrustUpdateFunc) (model.TrustScore, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("begin trust update: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO trust_scores (app_id, category, score, sample_count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (app_id, category) DO NOTHING
	`, key.AppID, string(key.Category), seed.Score, seed.SampleCount, seed.UpdatedAt.UTC()); err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("seed trust score: %w", err))
	}

	current, err := scanScore(tx.QueryRow(ctx, `
		SELECT app_id, category, score, sample_count, updated_at
		FROM trust_scores WHERE app_id = $1 AND category = $2
		FOR UPDATE
	`, key.AppID, string(key.Category)))
	if err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("lock trust score: %w", err))
	}

	if eventID != "" {
		tag, err := tx.Exec(ctx, `
			INSERT INTO trust_events (app_id, category, event_id) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, key.AppID, string(key.Category), eventID)
		if err != nil {
			return model.TrustScore{}, classifyError(fmt.Errorf("record trust event: %w", err))
		}
		if tag.RowsAffected() == 0 {
			if err := tx.Commit(ctx); err != nil {
				return model.TrustScore{}, classifyError(fmt.Errorf("commit trust seed: %w", err))
			}
			return current, nil
		}
	}

	next, err := fn(current)
	if err != nil {
		return model.TrustScore{}, err
	}
	next.AppID = key.AppID
	next.Category = key.Category

	if _, err := tx.Exec(ctx, upsertSQL,
		next.AppID, string(next.Category), next.Score, next.SampleCount, next.UpdatedAt.UTC()); err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("save trust score: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("commit trust update: %w", err))
	}
	return next, nil
}

// List returns the rows for appID, or every row when appID is empty.
func (s *TrustStore) List(ctx context.Context, appID string) ([]model.TrustScore, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT app_id, category, score, sample_count, updated_at
		FROM trust_scores
		WHERE $1 = '' OR app_id = $1
		ORDER BY app_id, category
	`, appID)
	if err != nil {
		return nil, classifyError(fmt.Errorf("list trust scores: %w", err))
	}
	defer rows.Close()

	var scores []model.TrustScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trust score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// Delete removes the row for key and its applied events.
func (s *TrustStore) Delete(ctx context.Context, key model.TrustKey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classifyError(fmt.Errorf("begin trust delete: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM trust_scores WHERE app_id = $1 AND category = $2`,
		key.AppID, string(key.Category))
	if err != nil {
		return classifyError(fmt.Errorf("delete trust score: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM trust_events WHERE app_id = $1 AND category = $2`,
		key.AppID, string(key.Category)); err != nil {
		return classifyError(fmt.Errorf("delete trust events: %w", err))
	}
	return tx.Commit(ctx)
}

func scanScore(row pgx.Row) (model.TrustScore, error) {
	var (
		score    model.TrustScore
		category string
	)
	if err := row.Scan(&score.AppID, &category, &score.Score, &score.SampleCount, &score.UpdatedAt); err != nil {
		return model.TrustScore{}, err
	}
	score.Category = model.Category(category)
	score.UpdatedAt = score.UpdatedAt.UTC()
	return score, nil
}

// classifyError marks serialization failures and deadlocks as contention.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return fmt.Errorf("%w: %w", common.ErrStoreContention, err)
	}
	return err
}
