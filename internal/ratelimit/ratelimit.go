// Package ratelimit implements a keyed sliding-window rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter admits at most limit events per key within any window-long span.
// Each key keeps the timestamps of its recent events; timestamps that fall
// outside the window are evicted whenever the key is checked, and keys nobody
// checks are swept at most once per window.
type Limiter struct {
	now       func() time.Time
	lastSweep time.Time
	events    map[string][]time.Time
	window    time.Duration
	limit     int
	poll      time.Duration
	mu        sync.Mutex
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithPollInterval sets how often Wait rechecks a saturated key.
func WithPollInterval(d time.Duration) Option {
	return func(l *Limiter) { l.poll = d }
}

// New creates a limiter. A limit of zero or less disables limiting.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	l := &Limiter{
		now:    time.Now,
		events: make(map[string][]time.Time),
		window: window,
		limit:  limit,
		poll:   100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an event for key and reports whether it fits in the window.
// A rejected event is not recorded.
func (l *Limiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	recent := l.evict(key, now)
	if len(recent) >= l.limit {
		return false
	}
	l.events[key] = append(recent, now)
	return true
}

// Wait blocks until an event for key fits in the window or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l.Allow(key) {
		return nil
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-ticker.C:
			if l.Allow(key) {
				return nil
			}
		}
	}
}

// Remaining returns how many more events key may record right now.
func (l *Limiter) Remaining(key string) int {
	if l.limit <= 0 {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit - len(l.evict(key, l.now()))
}

// Reset forgets every event recorded for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, key)
}

// Limit returns the configured number of events per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// sweep evicts every key once a window has passed since the last sweep.
// Callers hold l.mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key := range l.events {
		l.evict(key, now)
	}
}

// evict drops timestamps of key older than the window. Callers hold l.mu.
func (l *Limiter) evict(key string, now time.Time) []time.Time {
	events := l.events[key]
	cutoff := now.Add(-l.window)

	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	if i == len(events) {
		delete(l.events, key)
		return nil
	}
	if i > 0 {
		events = append(events[:0], events[i:]...)
		l.events[key] = events
	}
	return events
}
