package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage opens a migrated database in a temporary directory.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

var testKey = model.TrustKey{AppID: "app", Category: model.CategorySupportAccess}

func TestSQLiteStorage_TrustRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Get(ctx, testKey)
	require.ErrorIs(t, err, common.ErrNotFound)

	want := model.TrustScore{
		AppID:       "app",
		Category:    model.CategorySupportAccess,
		Score:       0.83,
		SampleCount: 17,
		UpdatedAt:   time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, want))

	got, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, want.AppID, got.AppID)
	assert.Equal(t, want.Category, got.Category)
	assert.InDelta(t, want.Score, got.Score, 1e-9)
	assert.Equal(t, want.SampleCount, got.SampleCount)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)

	// Put replaces.
	want.Score = 0.5
	require.NoError(t, store.Put(ctx, want))
	got, err = store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Score, 1e-9)
}

func TestSQLiteStorage_PutValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name  string
		score model.TrustScore
	}{
		{name: "missing app", score: model.TrustScore{Category: model.CategorySpam, Score: 0.5}},
		{name: "unknown category", score: model.TrustScore{AppID: "app", Category: "bogus", Score: 0.5}},
		{name: "score above one", score: model.TrustScore{AppID: "app", Category: model.CategorySpam, Score: 1.5}},
		{name: "negative samples", score: model.TrustScore{AppID: "app", Category: model.CategorySpam, SampleCount: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.Put(ctx, tt.score), ErrInvalidTrustScore)
		})
	}
}

func TestSQLiteStorage_UpdateSeedsAndDeduplicates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seed := model.TrustScore{Score: 0.75, SampleCount: 10, UpdatedAt: time.Now().UTC()}
	calls := 0
	bump := func(s model.TrustScore) (model.TrustScore, error) {
		calls++
		s.Score -= 0.15
		s.SampleCount++
		return s, nil
	}

	first, err := store.Update(ctx, testKey, "evt-1", seed, bump)
	require.NoError(t, err)
	assert.InDelta(t, 0.60, first.Score, 1e-9)
	assert.Equal(t, 11, first.SampleCount)
	assert.Equal(t, "app", first.AppID)

	again, err := store.Update(ctx, testKey, "evt-1", seed, bump)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.InDelta(t, first.Score, again.Score, 1e-9)

	second, err := store.Update(ctx, testKey, "evt-2", seed, bump)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, second.Score, 1e-9)

	// Events without an ID are never deduplicated.
	_, err = store.Update(ctx, testKey, "", seed, bump)
	require.NoError(t, err)
	_, err = store.Update(ctx, testKey, "", seed, bump)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestSQLiteStorage_UpdateRejectsInvalidResult(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Update(ctx, testKey, "", model.TrustScore{Score: 0.75}, func(s model.TrustScore) (model.TrustScore, error) {
		s.Score = 3
		return s, nil
	})
	require.ErrorIs(t, err, ErrInvalidTrustScore)

	_, err = store.Get(ctx, testKey)
	assert.ErrorIs(t, err, common.ErrNotFound, "failed update must not leave a row behind")
}

func TestSQLiteStorage_ConcurrentUpdates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, testKey, "", model.TrustScore{Score: 0.75}, func(s model.TrustScore) (model.TrustScore, error) {
				s.SampleCount++
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, workers, got.SampleCount)
}

func TestSQLiteStorage_ListAndDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, s := range []model.TrustScore{
		{AppID: "b", Category: model.CategorySpam, Score: 0.1},
		{AppID: "a", Category: model.CategorySupportTechnical, Score: 0.2},
		{AppID: "a", Category: model.CategorySupportAccess, Score: 0.3},
	} {
		require.NoError(t, store.Put(ctx, s))
	}

	rows, err := store.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.CategorySupportAccess, rows[0].Category)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	key := model.TrustKey{AppID: "a", Category: model.CategorySupportAccess}
	require.NoError(t, store.Delete(ctx, key))
	assert.ErrorIs(t, store.Delete(ctx, key), common.ErrNotFound)
}

func TestSQLiteStorage_Corrections(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	edit := model.Correction{
		ID:             "c1",
		Type:           model.CorrectionDraftEdit,
		AppID:          "app",
		ConversationID: "conv-1",
		Category:       model.CategorySupportAccess,
		Severity:       model.SeverityMajor,
		Draft:          "draft",
		Sent:           "something else entirely",
		EditDistance:   0.8,
		CreatedAt:      base,
	}
	override := model.Correction{
		ID:         "c2",
		Type:       model.CorrectionEscalationOverride,
		AppID:      "app",
		Category:   model.CategorySupportTechnical,
		Severity:   model.SeverityModerate,
		FromAction: model.ActionRespond,
		ToAction:   model.ActionSupportTeammate,
		CreatedAt:  base.Add(time.Hour),
	}
	require.NoError(t, store.SaveCorrection(ctx, edit))
	require.NoError(t, store.SaveCorrection(ctx, override))
	require.NoError(t, store.SaveCorrection(ctx, edit), "saving twice is a no-op")

	got, err := store.ListCorrections(ctx, "app", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[0].ID, "newest first")
	assert.Equal(t, model.ActionRespond, got[0].FromAction)
	assert.Equal(t, model.ActionSupportTeammate, got[0].ToAction)
	assert.Equal(t, "conv-1", got[1].ConversationID)
	assert.Equal(t, "something else entirely", got[1].Sent)
	assert.InDelta(t, 0.8, got[1].EditDistance, 1e-9)

	limited, err := store.ListCorrections(ctx, "app", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	err = store.SaveCorrection(ctx, model.Correction{ID: "bad", AppID: "app", Type: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCorrection)
}

func TestSQLiteStorage_Apps(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetAppConfig(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)

	app := model.AppConfig{AppID: "total-typescript", InstructorTeammateID: "tm_1", InstructorConfigured: true, AutoSendEnabled: true}
	require.NoError(t, store.SaveAppConfig(ctx, app))
	require.NoError(t, store.SaveAppConfig(ctx, model.AppConfig{AppID: "epic-web"}))

	got, err := store.GetAppConfig(ctx, "total-typescript")
	require.NoError(t, err)
	assert.Equal(t, app, got)

	app.AutoSendEnabled = false
	require.NoError(t, store.SaveAppConfig(ctx, app))
	got, err = store.GetAppConfig(ctx, "total-typescript")
	require.NoError(t, err)
	assert.False(t, got.AutoSendEnabled)

	apps, err := store.ListApps(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "epic-web", apps[0].AppID)

	err = store.SaveAppConfig(ctx, model.AppConfig{AppID: "x", InstructorConfigured: true})
	assert.ErrorIs(t, err, ErrInvalidAppConfig)
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Put(ctx, model.TrustScore{AppID: "app", Category: model.CategorySpam, Score: 0.4}))
	got, err := store.Get(ctx, model.TrustKey{AppID: "app", Category: model.CategorySpam})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Score, 1e-9)
}

func TestSQLiteStorage_Snapshot(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, model.TrustScore{AppID: "app", Category: model.CategorySpam, Score: 0.4}))

	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		path, err := store.Snapshot(ctx, dir, "pre-migrate", 2)
		require.NoError(t, err)
		paths = append(paths, path)
		time.Sleep(5 * time.Millisecond)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "pre-migrate-*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.NotContains(t, matches, paths[0], "oldest snapshot is pruned")

	copyStore, err := NewSQLiteStorage(paths[2])
	require.NoError(t, err)
	defer func() { _ = copyStore.Close() }()
	got, err := copyStore.Get(ctx, model.TrustKey{AppID: "app", Category: model.CategorySpam})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got.Score, 1e-9)
}
