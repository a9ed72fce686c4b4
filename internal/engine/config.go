package engine

import (
	"fmt"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/correction"
	"github.com/skillrecordings/support-sub010/internal/routing"
	"github.com/skillrecordings/support-sub010/internal/trust"
)

// Engine defaults.
const (
	DefaultFallbackTimeout = 8 * time.Second
	DefaultRateWindow      = time.Minute
	DefaultFallbackLimit   = 120
	DefaultRespondLimit    = 60
)

// Config holds configuration for the decision engine.
type Config struct {
	Routing    routing.Config    `mapstructure:"routing"`
	Trust      trust.Config      `mapstructure:"trust"`
	Correction correction.Config `mapstructure:"correction"`
	// FallbackTimeout bounds every fallback call.
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout"`
	// RateWindow is the sliding window for both per-app limits.
	RateWindow time.Duration `mapstructure:"rate_window"`
	// FallbackLimit caps fallback calls per app per window; zero disables it.
	FallbackLimit int `mapstructure:"fallback_limit"`
	// RespondLimit caps autonomous sends per app per window; zero disables it.
	RespondLimit int `mapstructure:"respond_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Routing:         routing.DefaultConfig(),
		Trust:           trust.DefaultConfig(),
		Correction:      correction.DefaultConfig(),
		FallbackTimeout: DefaultFallbackTimeout,
		RateWindow:      DefaultRateWindow,
		FallbackLimit:   DefaultFallbackLimit,
		RespondLimit:    DefaultRespondLimit,
	}
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	if c.FallbackTimeout <= 0 {
		return fmt.Errorf("%w: fallback_timeout must be positive", common.ErrInvalidConfig)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("%w: rate_window must be positive", common.ErrInvalidConfig)
	}
	if c.FallbackLimit < 0 || c.RespondLimit < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", common.ErrInvalidConfig)
	}
	if err := c.Routing.Validate(); err != nil {
		return fmt.Errorf("%w: routing: %w", common.ErrInvalidConfig, err)
	}
	if err := c.Trust.Validate(); err != nil {
		return fmt.Errorf("%w: trust: %w", common.ErrInvalidConfig, err)
	}
	if err := c.Correction.Validate(); err != nil {
		return fmt.Errorf("%w: correction: %w", common.ErrInvalidConfig, err)
	}
	return nil
}
