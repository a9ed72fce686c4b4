package main

import (
	"fmt"
	"log/slog"

	"github.com/skillrecordings/support-sub010/internal/config"
	"github.com/skillrecordings/support-sub010/internal/llm"
	"github.com/spf13/viper"
)

// createFallback creates the LLM fallback classifier from configuration. It
// returns nil when no provider is configured.
func createFallback(logger *slog.Logger) (*llm.Classifier, error) {
	cfg, enabled, err := config.LoadLLMConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if !enabled {
		logger.Warn("No LLM provider configured; threads the fast path cannot label go to a teammate")
		return nil, nil
	}

	classifier, err := llm.NewClassifier(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM classifier: %w", err)
	}

	logger.Info("Fallback classifier ready", "provider", cfg.Provider, "model", cfg.Model)
	return classifier, nil
}
