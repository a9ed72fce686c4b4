// Package service defines the interfaces the decision engine consumes.
package service

import (
	"context"
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// TrustUpdateFunc computes the next value of a trust row from its current value.
type TrustUpdateFunc func(current model.TrustScore) (model.TrustScore, error)

// TrustStore persists trust rows keyed by (app, category).
//
// Update must be an atomic read-modify-write under per-key isolation: two
// concurrent updates of the same key must both be applied. When eventID is not
// empty and was already applied to the key, Update must return the current row
// without calling fn.
type TrustStore interface {
	Get(ctx context.Context, key model.TrustKey) (*model.TrustScore, error)
	Put(ctx context.Context, score model.TrustScore) error
	Update(ctx context.Context, key model.TrustKey, eventID string, seed model.TrustScore, fn TrustUpdateFunc) (model.TrustScore, error)
	List(ctx context.Context, appID string) ([]model.TrustScore, error)
	Delete(ctx context.Context, key model.TrustKey) error
	Close() error
}

// Fallback classifies a thread when the fast path abstains. Implementations
// return an error only on transport failure; the caller bounds the call with
// ctx and treats any error or timeout as an unknown classification.
type Fallback interface {
	Classify(ctx context.Context, thread model.Thread) (model.FallbackResult, error)
}

// AppConfigSource looks up per-tenant configuration.
type AppConfigSource interface {
	GetAppConfig(ctx context.Context, appID string) (model.AppConfig, error)
}

// CorrectionSink stores captured corrections.
type CorrectionSink interface {
	SaveCorrection(ctx context.Context, correction model.Correction) error
}

// EventPublisher forwards engine events to other systems.
type EventPublisher interface {
	PublishCorrection(ctx context.Context, correction model.Correction) error
	PublishOutcome(ctx context.Context, event model.OutcomeEvent, score model.TrustScore) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
