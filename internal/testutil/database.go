// Package testutil provides test helpers shared across the triage packages:
// migrated throwaway databases and a fluent builder for conversation threads.
package testutil

import (
	"context"
	"testing"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/storage"
)

// TestDB is a migrated in-memory database scoped to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with apps. It
// automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, model.AppConfig{AppID: "total-typescript", AutoSendEnabled: true})
func SetupTestDB(t *testing.T, apps ...model.AppConfig) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Apps: apps})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Apps           []model.AppConfig
	Scores         []model.TrustScore
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, app := range opts.Apps {
		if err := store.SaveAppConfig(ctx, app); err != nil {
			t.Fatalf("failed to seed app %q: %v", app.AppID, err)
		}
	}
	for _, score := range opts.Scores {
		if err := store.Put(ctx, score); err != nil {
			t.Fatalf("failed to seed trust row %s: %v", score.Key(), err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustScore returns the stored trust row for (appID, category) or fails the test.
func (db *TestDB) MustScore(appID string, category model.Category) model.TrustScore {
	db.t.Helper()
	score, err := db.Storage.Get(context.Background(), model.TrustKey{AppID: appID, Category: category})
	if err != nil {
		db.t.Fatalf("failed to read trust row %s/%s: %v", appID, category, err)
	}
	return *score
}

// MustCorrections returns the stored corrections for appID or fails the test.
func (db *TestDB) MustCorrections(appID string) []model.Correction {
	db.t.Helper()
	corrections, err := db.Storage.ListCorrections(context.Background(), appID, 0)
	if err != nil {
		db.t.Fatalf("failed to list corrections for %s: %v", appID, err)
	}
	return corrections
}
