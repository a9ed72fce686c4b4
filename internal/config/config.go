package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/engine"
	"github.com/skillrecordings/support-sub010/internal/events"
	"github.com/skillrecordings/support-sub010/internal/llm"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Defaults for the outer surfaces.
const (
	DefaultListenAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBackupKeep      = 5
	DefaultLLMCacheTTL     = 15 * time.Minute
	DefaultLLMRateLimit    = 60
)

// StorageConfig selects and locates the trust store.
type StorageConfig struct {
	Driver string
	// Path is the SQLite database file. Corrections and app configuration
	// always live here, even when trust rows are kept in Postgres.
	Path       string
	DSN        string
	BackupDir  string
	BackupKeep int
}

// Validate checks the storage configuration.
func (c StorageConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DSN == "" {
			return fmt.Errorf("%w: database.dsn is required for the postgres driver", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", common.ErrInvalidConfig, c.Driver)
	}
	if c.Path == "" {
		return fmt.Errorf("%w: database.path is empty", common.ErrMissingConfig)
	}
	return nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// LoadEngineConfig reads the decision engine configuration. Keys that are not
// set keep their defaults.
func LoadEngineConfig(v *viper.Viper) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if v.IsSet("routing.confidence_floor") {
		cfg.Routing.ConfidenceFloor = v.GetFloat64("routing.confidence_floor")
	}

	if v.IsSet("trust.default_score") {
		cfg.Trust.DefaultScore = v.GetFloat64("trust.default_score")
	}
	if v.IsSet("trust.auto_send_threshold") {
		cfg.Trust.AutoSendScore = v.GetFloat64("trust.auto_send_threshold")
	}
	if v.IsSet("trust.seed_samples") {
		cfg.Trust.SeedSamples = v.GetInt("trust.seed_samples")
	}
	if v.IsSet("trust.thresholds") {
		var raw map[string]float64
		if err := v.UnmarshalKey("trust.thresholds", &raw); err != nil {
			return engine.Config{}, fmt.Errorf("%w: trust.thresholds: %w", common.ErrInvalidConfig, err)
		}
		for name, threshold := range raw {
			category, err := model.ParseCategory(strings.ToLower(name))
			if err != nil {
				return engine.Config{}, fmt.Errorf("%w: trust.thresholds: %w", common.ErrInvalidConfig, err)
			}
			cfg.Trust.Thresholds[category] = threshold
		}
	}
	if v.IsSet("trust.deltas") {
		var raw map[string]float64
		if err := v.UnmarshalKey("trust.deltas", &raw); err != nil {
			return engine.Config{}, fmt.Errorf("%w: trust.deltas: %w", common.ErrInvalidConfig, err)
		}
		for name, delta := range raw {
			outcome, err := model.ParseOutcome(strings.ToLower(name))
			if err != nil {
				return engine.Config{}, fmt.Errorf("%w: trust.deltas: %w", common.ErrInvalidConfig, err)
			}
			cfg.Trust.Deltas[outcome] = delta
		}
	}

	if v.IsSet("correction.edit_threshold") {
		cfg.Correction.EditThreshold = v.GetFloat64("correction.edit_threshold")
	}
	if v.IsSet("correction.minor_edit_below") {
		cfg.Correction.MinorEditBelow = v.GetFloat64("correction.minor_edit_below")
	}
	if v.IsSet("correction.major_edit_above") {
		cfg.Correction.MajorEditAbove = v.GetFloat64("correction.major_edit_above")
	}
	if v.IsSet("correction.high_confidence") {
		cfg.Correction.HighConfidence = v.GetFloat64("correction.high_confidence")
	}

	if v.IsSet("engine.fallback_timeout") {
		cfg.FallbackTimeout = v.GetDuration("engine.fallback_timeout")
	}
	if v.IsSet("engine.rate_window") {
		cfg.RateWindow = v.GetDuration("engine.rate_window")
	}
	if v.IsSet("engine.fallback_limit") {
		cfg.FallbackLimit = v.GetInt("engine.fallback_limit")
	}
	if v.IsSet("engine.respond_limit") {
		cfg.RespondLimit = v.GetInt("engine.respond_limit")
	}

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

// LoadLLMConfig reads the fallback classifier configuration. enabled is false
// when llm.provider is empty or "none"; the engine then runs without a
// fallback. API keys come from the config file or the provider's usual
// environment variable.
func LoadLLMConfig(v *viper.Viper) (cfg llm.Config, enabled bool, err error) {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("llm.provider")))
	if provider == "" || provider == "none" {
		return llm.Config{}, false, nil
	}

	cfg = llm.Config{
		Provider:    provider,
		Model:       v.GetString("llm.model"),
		BaseURL:     v.GetString("llm.base_url"),
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		MaxRetries:  v.GetInt("llm.max_retries"),
		RetryDelay:  v.GetDuration("llm.retry_delay"),
		CacheTTL:    v.GetDuration("llm.cache_ttl"),
		RateLimit:   v.GetInt("llm.rate_limit"),
		Burst:       v.GetInt("llm.burst"),
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultLLMCacheTTL
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultLLMRateLimit
	}

	switch provider {
	case llm.ProviderOpenAI:
		cfg.APIKey = v.GetString("llm.openai_api_key")
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return llm.Config{}, false, fmt.Errorf("%w: OpenAI API key not found in config or OPENAI_API_KEY environment variable", common.ErrMissingConfig)
		}
	case llm.ProviderAnthropic:
		cfg.APIKey = v.GetString("llm.anthropic_api_key")
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.APIKey == "" {
			return llm.Config{}, false, fmt.Errorf("%w: anthropic API key not found in config or ANTHROPIC_API_KEY environment variable", common.ErrMissingConfig)
		}
	default:
		return llm.Config{}, false, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, provider)
	}

	return cfg, true, nil
}

// LoadStorageConfig reads the database configuration.
func LoadStorageConfig(v *viper.Viper) (StorageConfig, error) {
	cfg := StorageConfig{
		Driver:     strings.ToLower(v.GetString("database.driver")),
		Path:       ExpandPath(v.GetString("database.path")),
		DSN:        v.GetString("database.dsn"),
		BackupDir:  ExpandPath(v.GetString("database.backup_dir")),
		BackupKeep: v.GetInt("database.backup_keep"),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Path == "" {
		cfg.Path = DefaultDatabasePath()
	}
	if !v.IsSet("database.backup_keep") {
		cfg.BackupKeep = DefaultBackupKeep
	}

	if err := cfg.Validate(); err != nil {
		return StorageConfig{}, err
	}
	return cfg, nil
}

// LoadEventsConfig reads the Kafka publisher configuration. An empty broker
// list disables publishing.
func LoadEventsConfig(v *viper.Viper) events.Config {
	return events.Config{
		Brokers:          v.GetStringSlice("events.brokers"),
		CorrectionsTopic: v.GetString("events.corrections_topic"),
		OutcomesTopic:    v.GetString("events.outcomes_topic"),
	}
}

// LoadServerConfig reads the HTTP API configuration.
func LoadServerConfig(v *viper.Viper) ServerConfig {
	cfg := ServerConfig{
		Addr:            v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultListenAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return cfg
}

// LoadApps reads the statically configured apps.
func LoadApps(v *viper.Viper) ([]model.AppConfig, error) {
	var apps []model.AppConfig
	if err := v.UnmarshalKey("apps", &apps); err != nil {
		return nil, fmt.Errorf("%w: apps: %w", common.ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(apps))
	for i, app := range apps {
		if app.AppID == "" {
			return nil, fmt.Errorf("%w: apps[%d] has no app_id", common.ErrInvalidConfig, i)
		}
		if seen[app.AppID] {
			return nil, fmt.Errorf("%w: app %q configured twice", common.ErrInvalidConfig, app.AppID)
		}
		if app.InstructorConfigured && app.InstructorTeammateID == "" {
			return nil, fmt.Errorf("%w: app %q has an instructor without instructor_teammate_id", common.ErrInvalidConfig, app.AppID)
		}
		seen[app.AppID] = true
	}
	return apps, nil
}
