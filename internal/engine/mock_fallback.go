package engine

import (
	"context"
	"sync"
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// MockFallback is a test implementation of service.Fallback. It returns a
// fixed result, or the result registered for a conversation ID.
type MockFallback struct {
	Err     error
	results map[string]model.FallbackResult
	calls   []MockFallbackCall
	Result  model.FallbackResult
	Delay   time.Duration
	mu      sync.Mutex
	// IgnoreContext makes Classify sleep the full Delay regardless of ctx.
	IgnoreContext bool
}

// MockFallbackCall records one classification request.
type MockFallbackCall struct {
	ConversationID string
	MessageCount   int
}

// NewMockFallback creates a mock that answers every call with result.
func NewMockFallback(result model.FallbackResult) *MockFallback {
	return &MockFallback{
		Result:  result,
		results: make(map[string]model.FallbackResult),
	}
}

// SetResult registers a result for one conversation.
func (m *MockFallback) SetResult(conversationID string, result model.FallbackResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[conversationID] = result
}

// Classify implements service.Fallback. It honors ctx while simulating Delay
// unless IgnoreContext is set.
func (m *MockFallback) Classify(ctx context.Context, thread model.Thread) (model.FallbackResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockFallbackCall{
		ConversationID: thread.ConversationID,
		MessageCount:   len(thread.Messages),
	})
	delay := m.Delay
	ignoreCtx := m.IgnoreContext
	err := m.Err
	result, ok := m.results[thread.ConversationID]
	if !ok {
		result = m.Result
	}
	m.mu.Unlock()

	if delay > 0 && ignoreCtx {
		time.Sleep(delay)
	} else if delay > 0 {
		select {
		case <-ctx.Done():
			return model.FallbackResult{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return model.FallbackResult{}, err
	}
	return result, nil
}

// Calls returns the recorded calls.
func (m *MockFallback) Calls() []MockFallbackCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockFallbackCall(nil), m.calls...)
}
