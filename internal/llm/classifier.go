package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
	"golang.org/x/time/rate"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 300
)

// Classifier implements service.Fallback using LLM APIs.
type Classifier struct {
	client       Client
	cache        *resultCache
	logger       *slog.Logger
	pacer        *rate.Limiter
	systemPrompt string
	categories   []model.Category
	retryOpts    service.RetryOptions
}

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Burst       int
	Temperature float64
	MaxTokens   int
}

// NewClassifier creates a new LLM-based fallback classifier.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newClassifier(client, cfg, logger), nil
}

func newClassifier(client Client, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 250 * time.Millisecond
	}

	categories := append([]model.Category(nil), model.AllCategories...)

	return &Classifier{
		client:       client,
		cache:        newResultCache(cfg.CacheTTL),
		logger:       logger,
		pacer:        newPacer(cfg.RateLimit, cfg.Burst),
		systemPrompt: buildSystemPrompt(categories),
		categories:   categories,
		retryOpts:    retryOpts,
	}
}

// Classify labels a thread the fast path abstained on. The thread is redacted
// before it leaves the process. Results are cached by thread hash.
func (c *Classifier) Classify(ctx context.Context, thread model.Thread) (model.FallbackResult, error) {
	key := thread.Hash()
	if result, found := c.cache.get(key); found {
		c.logger.Debug("cache hit for thread",
			"conversation_id", thread.ConversationID,
			"category", result.Category)
		return result, nil
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return model.FallbackResult{}, fmt.Errorf("%w: pacing: %w", common.ErrRateLimit, err)
	}

	req := ClassificationRequest{
		System:     c.systemPrompt,
		Prompt:     buildPrompt(RedactThread(thread)),
		Categories: c.categories,
	}

	var resp ClassificationResponse
	err := common.WithRetry(ctx, func() error {
		var classifyErr error
		resp, classifyErr = c.client.Classify(ctx, req)
		if classifyErr != nil {
			c.logger.Warn("LLM classification attempt failed",
				"conversation_id", thread.ConversationID,
				"error", classifyErr)
			return classifyErr
		}
		return nil
	}, c.retryOpts)
	if err != nil {
		return model.FallbackResult{}, fmt.Errorf("%w: %w", common.ErrFallbackUnavailable, err)
	}

	result := model.FallbackResult{
		Category:   resp.Category,
		Reasoning:  resp.Reasoning,
		Confidence: model.ClampConfidence(resp.Confidence),
	}
	c.cache.set(key, result)

	c.logger.Info("thread classified by fallback",
		"conversation_id", thread.ConversationID,
		"category", result.Category,
		"confidence", result.Confidence)

	return result, nil
}

// Close releases background resources.
func (c *Classifier) Close() error {
	c.cache.Close()
	return nil
}
