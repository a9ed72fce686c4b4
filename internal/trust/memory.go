package trust

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

// MemoryStore is an in-process TrustStore. Updates of the same key are
// serialised by a per-key mutex; different keys proceed in parallel.
type MemoryStore struct {
	scores  map[model.TrustKey]model.TrustScore
	applied map[model.TrustKey]map[string]bool
	locks   map[model.TrustKey]*sync.Mutex
	mu      sync.RWMutex
	closed  bool
}

var _ service.TrustStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:  make(map[model.TrustKey]model.TrustScore),
		applied: make(map[model.TrustKey]map[string]bool),
		locks:   make(map[model.TrustKey]*sync.Mutex),
	}
}

// Get returns the row for key or common.ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, key model.TrustKey) (*model.TrustScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memory store is closed")
	}

	score, ok := s.scores[key]
	if !ok {
		return nil, fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	return &score, nil
}

// Put overwrites the row for score.Key().
func (s *MemoryStore) Put(ctx context.Context, score model.TrustScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockFor(score.Key())
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	s.scores[score.Key()] = score
	return nil
}

// Update applies fn to the row for key, seeding it first when absent.
func (s *MemoryStore) Update(ctx context.Context, key model.TrustKey, eventID string, seed model.TrustScore, fn service.TrustUpdateFunc) (model.TrustScore, error) {
	if err := ctx.Err(); err != nil {
		return model.TrustScore{}, err
	}
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	closed := s.closed
	current, ok := s.scores[key]
	duplicate := eventID != "" && s.applied[key][eventID]
	s.mu.RUnlock()

	if closed {
		return model.TrustScore{}, fmt.Errorf("memory store is closed")
	}
	if !ok {
		current = seed
	}
	if duplicate {
		return current, nil
	}

	next, err := fn(current)
	if err != nil {
		return model.TrustScore{}, err
	}
	next.AppID = key.AppID
	next.Category = key.Category

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[key] = next
	if eventID != "" {
		if s.applied[key] == nil {
			s.applied[key] = make(map[string]bool)
		}
		s.applied[key][eventID] = true
	}
	return next, nil
}

// List returns the rows for appID ordered by category. An empty appID lists
// every row.
func (s *MemoryStore) List(ctx context.Context, appID string) ([]model.TrustScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TrustScore, 0, len(s.scores))
	for key, score := range s.scores {
		if appID == "" || key.AppID == appID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppID != out[j].AppID {
			return out[i].AppID < out[j].AppID
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// Delete removes the row for key and forgets its applied events.
func (s *MemoryStore) Delete(ctx context.Context, key model.TrustKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scores[key]; !ok {
		return fmt.Errorf("trust %s: %w", key, common.ErrNotFound)
	}
	delete(s.scores, key)
	delete(s.applied, key)
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) lockFor(key model.TrustKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}
