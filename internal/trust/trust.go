// Package trust tracks how far the engine may act alone for each app and
// category, based on what humans did with its past decisions.
package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

// Defaults for new trust rows and auto-send gating.
const (
	DefaultScore         = 0.75
	DefaultSeedSamples   = 10
	DefaultAutoSendScore = 0.80
)

// DefaultDeltas are the score changes applied per outcome. Negative outcomes
// erode trust faster than positive ones build it.
func DefaultDeltas() map[model.Outcome]float64 {
	return map[model.Outcome]float64{
		model.OutcomeSentUnchanged:     0.02,
		model.OutcomeSentWithMinorEdit: 0.00,
		model.OutcomeSentWithMajorEdit: -0.10,
		model.OutcomeOverridden:        -0.10,
		model.OutcomeRejected:          -0.15,
	}
}

// Config tunes the trust model.
type Config struct {
	Thresholds    map[model.Category]float64 `mapstructure:"thresholds"`
	Deltas        map[model.Outcome]float64  `mapstructure:"deltas"`
	DefaultScore  float64                    `mapstructure:"default_score"`
	SeedSamples   int                        `mapstructure:"seed_samples"`
	AutoSendScore float64                    `mapstructure:"auto_send_threshold"`
}

// DefaultConfig returns the standard trust configuration.
func DefaultConfig() Config {
	return Config{
		DefaultScore:  DefaultScore,
		SeedSamples:   DefaultSeedSamples,
		AutoSendScore: DefaultAutoSendScore,
		Thresholds:    map[model.Category]float64{},
		Deltas:        DefaultDeltas(),
	}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	if c.DefaultScore < 0 || c.DefaultScore > 1 {
		return fmt.Errorf("default score %.2f out of range [0,1]", c.DefaultScore)
	}
	if c.AutoSendScore < 0 || c.AutoSendScore > 1 {
		return fmt.Errorf("auto-send threshold %.2f out of range [0,1]", c.AutoSendScore)
	}
	if c.SeedSamples < 0 {
		return fmt.Errorf("seed samples must not be negative")
	}
	for category, threshold := range c.Thresholds {
		if !category.IsValid() {
			return fmt.Errorf("threshold for unknown category %q", category)
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold for %s %.2f out of range [0,1]", category, threshold)
		}
	}
	for outcome, delta := range c.Deltas {
		if !outcome.IsValid() {
			return fmt.Errorf("delta for unknown outcome %q", outcome)
		}
		if delta < -1 || delta > 1 {
			return fmt.Errorf("delta for %s %.2f out of range [-1,1]", outcome, delta)
		}
	}
	return nil
}

// Threshold returns the auto-send threshold for category.
func (c Config) Threshold(category model.Category) float64 {
	if t, ok := c.Thresholds[category]; ok {
		return t
	}
	return c.AutoSendScore
}

// Delta returns the score change for outcome.
func (c Config) Delta(outcome model.Outcome) float64 {
	if d, ok := c.Deltas[outcome]; ok {
		return d
	}
	return DefaultDeltas()[outcome]
}

// Model reads and updates trust scores through a store.
type Model struct {
	store  service.TrustStore
	logger *slog.Logger
	now    func() time.Time
	config Config
	retry  service.RetryOptions
}

// Option configures a Model.
type Option func(*Model)

// WithClock replaces the wall clock used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithRetryOptions sets the backoff used when the store reports contention.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(m *Model) { m.retry = opts }
}

// NewModel creates a trust model over store.
func NewModel(store service.TrustStore, config Config, opts ...Option) (*Model, error) {
	if store == nil {
		return nil, fmt.Errorf("trust store is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	m := &Model{
		store:  store,
		config: config,
		logger: slog.Default(),
		now:    time.Now,
		retry: service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
			Multiplier:   2,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the active configuration.
func (m *Model) Config() Config {
	return m.config
}

// Store returns the underlying store.
func (m *Model) Store() service.TrustStore {
	return m.store
}

// GetScore returns the trust row for (appID, category), creating it with the
// default score on first use.
func (m *Model) GetScore(ctx context.Context, appID string, category model.Category) (model.TrustScore, error) {
	key, err := m.key(appID, category)
	if err != nil {
		return model.TrustScore{}, err
	}

	score, err := m.store.Get(ctx, key)
	if err == nil {
		return *score, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return model.TrustScore{}, fmt.Errorf("failed to read trust for %s: %w", key, err)
	}

	return m.update(ctx, key, "", func(current model.TrustScore) (model.TrustScore, error) {
		return current, nil
	})
}

// ShouldAutoSend reports whether the engine may answer (appID, category)
// without a human. Never-auto-send categories are refused before the store
// is consulted.
func (m *Model) ShouldAutoSend(ctx context.Context, appID string, category model.Category) (bool, error) {
	if category.NeverAutoSend() || category == model.CategoryUnknown {
		return false, nil
	}

	score, err := m.GetScore(ctx, appID, category)
	if err != nil {
		return false, err
	}
	return score.Score >= m.config.Threshold(category), nil
}

// UpdateScore applies outcome to the (appID, category) row.
func (m *Model) UpdateScore(ctx context.Context, appID string, category model.Category, outcome model.Outcome) (model.TrustScore, error) {
	score, _, err := m.Record(ctx, model.OutcomeEvent{AppID: appID, Category: category, Outcome: outcome})
	return score, err
}

// Record applies an outcome event. When the event carries an ID that was
// already applied, the current row is returned with applied=false.
func (m *Model) Record(ctx context.Context, event model.OutcomeEvent) (score model.TrustScore, applied bool, err error) {
	if !event.Outcome.IsValid() {
		return model.TrustScore{}, false, common.NewPreconditionError(common.ErrInvalidOutcome,
			fmt.Sprintf("outcome %q", event.Outcome))
	}
	key, err := m.key(event.AppID, event.Category)
	if err != nil {
		return model.TrustScore{}, false, err
	}

	delta := m.config.Delta(event.Outcome)
	score, err = m.update(ctx, key, event.ID, func(current model.TrustScore) (model.TrustScore, error) {
		applied = true
		current.Score = Clamp(current.Score + delta)
		current.SampleCount++
		current.UpdatedAt = m.now().UTC()
		return current, nil
	})
	if err != nil {
		return model.TrustScore{}, false, err
	}

	if applied {
		m.logger.Debug("Trust updated",
			"key", key.String(),
			"outcome", event.Outcome,
			"delta", delta,
			"score", score.Score,
			"samples", score.SampleCount)
	} else {
		m.logger.Info("Duplicate outcome ignored",
			"key", key.String(),
			"event_id", event.ID)
	}
	return score, applied, nil
}

// Reset restores the default row for (appID, category).
func (m *Model) Reset(ctx context.Context, appID string, category model.Category) (model.TrustScore, error) {
	key, err := m.key(appID, category)
	if err != nil {
		return model.TrustScore{}, err
	}
	seed := m.seed(key)
	if err := m.store.Put(ctx, seed); err != nil {
		return model.TrustScore{}, fmt.Errorf("failed to reset trust for %s: %w", key, err)
	}
	return seed, nil
}

// List returns every stored row for appID.
func (m *Model) List(ctx context.Context, appID string) ([]model.TrustScore, error) {
	return m.store.List(ctx, appID)
}

func (m *Model) update(ctx context.Context, key model.TrustKey, eventID string, fn service.TrustUpdateFunc) (model.TrustScore, error) {
	var result model.TrustScore
	err := common.WithRetry(ctx, func() error {
		score, err := m.store.Update(ctx, key, eventID, m.seed(key), fn)
		if err != nil {
			if !common.IsRetryable(err) {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}
		result = score
		return nil
	}, m.retry)
	if err != nil {
		return model.TrustScore{}, fmt.Errorf("failed to update trust for %s: %w", key, err)
	}
	return result, nil
}

func (m *Model) seed(key model.TrustKey) model.TrustScore {
	return model.TrustScore{
		AppID:       key.AppID,
		Category:    key.Category,
		Score:       m.config.DefaultScore,
		SampleCount: m.config.SeedSamples,
		UpdatedAt:   m.now().UTC(),
	}
}

func (m *Model) key(appID string, category model.Category) (model.TrustKey, error) {
	if appID == "" {
		return model.TrustKey{}, common.NewPreconditionError(common.ErrInvalidInput, "app id is required")
	}
	if !category.IsValid() {
		return model.TrustKey{}, common.NewPreconditionError(common.ErrInvalidInput,
			fmt.Sprintf("category %q", category))
	}
	return model.TrustKey{AppID: appID, Category: category}, nil
}

// Clamp bounds a score to [0,1].
func Clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
