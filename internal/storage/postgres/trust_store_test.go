package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to TRIAGE_TEST_POSTGRES_DSN and isolates the test by
// using a unique app ID.
func newTestStore(t *testing.T) (*TrustStore, string) {
	t.Helper()
	dsn := os.Getenv("TRIAGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TRIAGE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewTrustStoreFromConnString(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	return store, fmt.Sprintf("test-%d", time.Now().UnixNano())
}

func TestTrustStore_RoundTrip(t *testing.T) {
	store, appID := newTestStore(t)
	ctx := context.Background()
	key := model.TrustKey{AppID: appID, Category: model.CategorySupportAccess}

	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, common.ErrNotFound)

	want := model.TrustScore{AppID: appID, Category: model.CategorySupportAccess, Score: 0.9, SampleCount: 3, UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	require.NoError(t, store.Put(ctx, want))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	rows, err := store.List(ctx, appID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, store.Delete(ctx, key))
	assert.ErrorIs(t, store.Delete(ctx, key), common.ErrNotFound)
}

func TestTrustStore_UpdateDeduplicatesAndSerialises(t *testing.T) {
	store, appID := newTestStore(t)
	ctx := context.Background()
	key := model.TrustKey{AppID: appID, Category: model.CategorySupportTechnical}
	seed := model.TrustScore{Score: 0.75, UpdatedAt: time.Now().UTC()}

	inc := func(s model.TrustScore) (model.TrustScore, error) {
		s.SampleCount++
		return s, nil
	}

	_, err := store.Update(ctx, key, "evt", seed, inc)
	require.NoError(t, err)
	again, err := store.Update(ctx, key, "evt", seed, inc)
	require.NoError(t, err)
	assert.Equal(t, 1, again.SampleCount)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, key, "", seed, inc)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1+workers, got.SampleCount)
}

func TestClassifyError(t *testing.T) {
	assert.ErrorIs(t, classifyError(&pgconn.PgError{Code: "40001"}), common.ErrStoreContention)
	assert.ErrorIs(t, classifyError(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"})), common.ErrStoreContention)
	assert.NotErrorIs(t, classifyError(&pgconn.PgError{Code: "23505"}), common.ErrStoreContention)
	assert.NotErrorIs(t, classifyError(errors.New("boom")), common.ErrStoreContention)
}
