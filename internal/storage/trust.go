package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

var _ service.TrustStore = (*SQLiteStorage)(nil)

// Get returns the trust row for key or common.ErrNotFound.
func (s *SQLiteStorage) Get(ctx context.Context, key model.TrustKey) (*model.TrustScore, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTrustKey(key); err != nil {
		return nil, err
	}
	score, err := getTrustTx(ctx, s.db, key)
	return score, classifyError(err)
}

func getTrustTx(ctx context.Context, q queryable, key model.TrustKey) (*model.TrustScore, error) {
	var score model.TrustScore
	err := q.QueryRowContext(ctx, `
		SELECT app_id, category, score, sample_count, updated_at
		FROM trust_scores
		WHERE app_id = ? AND category = ?
	`, key.AppID, string(key.Category)).Scan(
		&score.AppID,
		&score.Category,
		&score.Score,
		&score.SampleCount,
		&score.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trust score: %w", err)
	}
	return &score, nil
}

// Put writes score, replacing any existing row for its key.
func (s *SQLiteStorage) Put(ctx context.Context, score model.TrustScore) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrustScore(score); err != nil {
		return err
	}
	return classifyError(putTrustTx(ctx, s.db, score))
}

func putTrustTx(ctx context.Context, q queryable, score model.TrustScore) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO trust_scores (app_id, category, score, sample_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(app_id, category) DO UPDATE SET
			score = excluded.score,
			sample_count = excluded.sample_count,
			updated_at = excluded.updated_at
	`, score.AppID, string(score.Category), score.Score, score.SampleCount, score.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save trust score: %w", err)
	}
	return nil
}

// Update applies fn to the row for key inside one transaction. Rows are
// created from seed on first use, and an eventID already recorded for key
// returns the current row untouched.
func (s *SQLiteStorage) Update(ctx context.Context, key model.TrustKey, eventID string, seed model.TrustScore, fn service.TrustUpdateFunc) (model.TrustScore, error) {
	if err := validateContext(ctx); err != nil {
		return model.TrustScore{}, err
	}
	if err := validateTrustKey(key); err != nil {
		return model.TrustScore{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getTrustTx(ctx, tx, key)
	switch {
	case errors.Is(err, common.ErrNotFound):
		current = &seed
		current.AppID = key.AppID
		current.Category = key.Category
	case err != nil:
		return model.TrustScore{}, classifyError(err)
	}

	if eventID != "" {
		var seen bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM trust_events WHERE app_id = ? AND category = ? AND event_id = ?)
		`, key.AppID, string(key.Category), eventID).Scan(&seen); err != nil {
			return model.TrustScore{}, classifyError(fmt.Errorf("failed to check applied events: %w", err))
		}
		if seen {
			return *current, nil
		}
	}

	next, err := fn(*current)
	if err != nil {
		return model.TrustScore{}, err
	}
	next.AppID = key.AppID
	next.Category = key.Category
	if err := validateTrustScore(next); err != nil {
		return model.TrustScore{}, err
	}

	if err := putTrustTx(ctx, tx, next); err != nil {
		return model.TrustScore{}, classifyError(err)
	}
	if eventID != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trust_events (app_id, category, event_id) VALUES (?, ?, ?)
		`, key.AppID, string(key.Category), eventID); err != nil {
			return model.TrustScore{}, classifyError(fmt.Errorf("failed to record event: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return model.TrustScore{}, classifyError(fmt.Errorf("failed to commit trust update: %w", err))
	}
	return next, nil
}

// List returns the trust rows for appID ordered by category. An empty appID
// lists every row.
func (s *SQLiteStorage) List(ctx context.Context, appID string) ([]model.TrustScore, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT app_id, category, score, sample_count, updated_at FROM trust_scores`
	var args []any
	if appID != "" {
		query += ` WHERE app_id = ?`
		args = append(args, appID)
	}
	query += ` ORDER BY app_id, category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to list trust scores: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var scores []model.TrustScore
	for rows.Next() {
		var score model.TrustScore
		if err := rows.Scan(&score.AppID, &score.Category, &score.Score, &score.SampleCount, &score.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trust score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// Delete removes the row for key together with its applied events.
func (s *SQLiteStorage) Delete(ctx context.Context, key model.TrustKey) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrustKey(key); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM trust_scores WHERE app_id = ? AND category = ?`,
		key.AppID, string(key.Category))
	if err != nil {
		return classifyError(fmt.Errorf("failed to delete trust score: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trust_events WHERE app_id = ? AND category = ?`,
		key.AppID, string(key.Category)); err != nil {
		return classifyError(fmt.Errorf("failed to delete trust events: %w", err))
	}
	return tx.Commit()
}
