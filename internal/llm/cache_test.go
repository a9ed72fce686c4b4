package llm

import (
	"sync"
	"testing"
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestResultCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newResultCache(5 * time.Minute)
		defer cache.Close()

		_, found := cache.get("non-existent")
		assert.False(t, found)

		result := model.FallbackResult{
			Category:   "support_access",
			Reasoning:  "login",
			Confidence: 0.95,
		}
		cache.set("key1", result)

		retrieved, found := cache.get("key1")
		assert.True(t, found)
		assert.Equal(t, result, retrieved)

		assert.Equal(t, 1, cache.size())

		cache.clear()
		assert.Equal(t, 0, cache.size())
		_, found = cache.get("key1")
		assert.False(t, found)
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newResultCache(time.Minute)
		defer cache.Close()

		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return now }

		cache.set("key2", model.FallbackResult{Category: "spam", Confidence: 0.85})

		_, found := cache.get("key2")
		assert.True(t, found)

		now = now.Add(2 * time.Minute)
		_, found = cache.get("key2")
		assert.False(t, found)

		cache.evictExpired()
		assert.Equal(t, 0, cache.size())
	})

	t.Run("default ttl", func(t *testing.T) {
		cache := newResultCache(0)
		defer cache.Close()
		assert.Equal(t, defaultCacheTTL, cache.ttl)
	})

	t.Run("close twice", func(t *testing.T) {
		cache := newResultCache(time.Minute)
		cache.Close()
		assert.NotPanics(t, cache.Close)
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newResultCache(time.Minute)
		defer cache.Close()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := string(rune('a' + i))
				cache.set(key, model.FallbackResult{Category: "fan_mail"})
				_, _ = cache.get(key)
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 20, cache.size())
	})
}
