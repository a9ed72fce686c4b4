package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

var _ service.CorrectionSink = (*SQLiteStorage)(nil)

// SaveCorrection stores a correction. Saving the same ID twice is a no-op.
func (s *SQLiteStorage) SaveCorrection(ctx context.Context, c model.Correction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCorrection(c); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (
			id, type, app_id, conversation_id, category, severity,
			draft, sent, edit_distance,
			from_category, to_category, original_confidence,
			from_action, to_action, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID, string(c.Type), c.AppID, c.ConversationID, string(c.Category), string(c.Severity),
		nullString(c.Draft), nullString(c.Sent), c.EditDistance,
		nullString(string(c.FromCategory)), nullString(string(c.ToCategory)), c.OriginalConfidence,
		nullString(string(c.FromAction)), nullString(string(c.ToAction)), c.CreatedAt.UTC(),
	)
	if err != nil {
		return classifyError(fmt.Errorf("failed to save correction: %w", err))
	}
	return nil
}

// ListCorrections returns the newest corrections for appID, at most limit
// rows. A limit of zero or less returns every row.
func (s *SQLiteStorage) ListCorrections(ctx context.Context, appID string, limit int) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(appID, "appID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, app_id, conversation_id, category, severity,
			draft, sent, edit_distance,
			from_category, to_category, original_confidence,
			from_action, to_action, created_at
		FROM corrections
		WHERE app_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, appID, limit)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to list corrections: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var out []model.Correction
	for rows.Next() {
		var (
			c                                              model.Correction
			conversationID, draft, sent                    sql.NullString
			fromCategory, toCategory, fromAction, toAction sql.NullString
			editDistance, originalConfidence               sql.NullFloat64
		)
		if err := rows.Scan(
			&c.ID, &c.Type, &c.AppID, &conversationID, &c.Category, &c.Severity,
			&draft, &sent, &editDistance,
			&fromCategory, &toCategory, &originalConfidence,
			&fromAction, &toAction, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		c.ConversationID = conversationID.String
		c.Draft = draft.String
		c.Sent = sent.String
		c.EditDistance = editDistance.Float64
		c.FromCategory = model.Category(fromCategory.String)
		c.ToCategory = model.Category(toCategory.String)
		c.OriginalConfidence = originalConfidence.Float64
		c.FromAction = model.Action(fromAction.String)
		c.ToAction = model.Action(toAction.String)
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
