package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

var _ service.AppConfigSource = (*SQLiteStorage)(nil)

// GetAppConfig returns the stored configuration for appID or common.ErrNotFound.
func (s *SQLiteStorage) GetAppConfig(ctx context.Context, appID string) (model.AppConfig, error) {
	if err := validateContext(ctx); err != nil {
		return model.AppConfig{}, err
	}
	if err := validateString(appID, "appID"); err != nil {
		return model.AppConfig{}, err
	}

	var (
		app        model.AppConfig
		instructor sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT app_id, instructor_teammate_id, instructor_configured, auto_send_enabled
		FROM apps
		WHERE app_id = ?
	`, appID).Scan(&app.AppID, &instructor, &app.InstructorConfigured, &app.AutoSendEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AppConfig{}, fmt.Errorf("app %q: %w", appID, common.ErrNotFound)
	}
	if err != nil {
		return model.AppConfig{}, classifyError(fmt.Errorf("failed to get app config: %w", err))
	}
	app.InstructorTeammateID = instructor.String
	return app, nil
}

// SaveAppConfig inserts or replaces the configuration of one app.
func (s *SQLiteStorage) SaveAppConfig(ctx context.Context, app model.AppConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAppConfig(app); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO apps (app_id, instructor_teammate_id, instructor_configured, auto_send_enabled, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET
			instructor_teammate_id = excluded.instructor_teammate_id,
			instructor_configured = excluded.instructor_configured,
			auto_send_enabled = excluded.auto_send_enabled,
			updated_at = excluded.updated_at
	`, app.AppID, nullString(app.InstructorTeammateID), app.InstructorConfigured, app.AutoSendEnabled, time.Now().UTC())
	if err != nil {
		return classifyError(fmt.Errorf("failed to save app config: %w", err))
	}
	return nil
}

// ListApps returns every stored app configuration ordered by ID.
func (s *SQLiteStorage) ListApps(ctx context.Context) ([]model.AppConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT app_id, instructor_teammate_id, instructor_configured, auto_send_enabled
		FROM apps
		ORDER BY app_id
	`)
	if err != nil {
		return nil, classifyError(fmt.Errorf("failed to list apps: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var apps []model.AppConfig
	for rows.Next() {
		var (
			app        model.AppConfig
			instructor sql.NullString
		)
		if err := rows.Scan(&app.AppID, &instructor, &app.InstructorConfigured, &app.AutoSendEnabled); err != nil {
			return nil, fmt.Errorf("failed to scan app config: %w", err)
		}
		app.InstructorTeammateID = instructor.String
		apps = append(apps, app)
	}
	return apps, rows.Err()
}
