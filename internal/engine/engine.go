// Package engine implements the triage decision engine: signal extraction,
// fast-path classification, the fallback boundary, routing and the trust
// feedback loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skillrecordings/support-sub010/internal/classification"
	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/correction"
	"github.com/skillrecordings/support-sub010/internal/metrics"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/ratelimit"
	"github.com/skillrecordings/support-sub010/internal/routing"
	"github.com/skillrecordings/support-sub010/internal/service"
	"github.com/skillrecordings/support-sub010/internal/signals"
	"github.com/skillrecordings/support-sub010/internal/trust"
)

// Rate limit scopes reported to metrics.
const (
	scopeFallback = "fallback"
	scopeRespond  = "respond"
)

// Engine orchestrates the decision for one inbound message and folds human
// feedback back into trust.
type Engine struct {
	fastPath        *classification.FastPath
	fallback        service.Fallback
	router          *routing.Router
	trust           *trust.Model
	capturer        *correction.Capturer
	apps            service.AppConfigSource
	sink            service.CorrectionSink
	publisher       service.EventPublisher
	metrics         *metrics.Metrics
	fallbackLimiter *ratelimit.Limiter
	respondLimiter  *ratelimit.Limiter
	logger          *slog.Logger
	now             func() time.Time
	config          Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithFallback sets the classifier consulted when the fast path abstains.
// Without one, abstentions classify as unknown.
func WithFallback(f service.Fallback) Option {
	return func(e *Engine) { e.fallback = f }
}

// WithFastPath replaces the default rule table.
func WithFastPath(fp *classification.FastPath) Option {
	return func(e *Engine) { e.fastPath = fp }
}

// WithAppSource sets the per-tenant configuration lookup used by DecideForApp.
func WithAppSource(src service.AppConfigSource) Option {
	return func(e *Engine) { e.apps = src }
}

// WithCorrectionSink sets where captured corrections are stored.
func WithCorrectionSink(sink service.CorrectionSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithPublisher sets where corrections and outcomes are forwarded.
func WithPublisher(p service.EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics sets the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock replaces the wall clock for the rate limiters, trust rows and
// correction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over a trust store.
func New(store service.TrustStore, config Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: trust store is required", common.ErrMissingConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fastPath == nil {
		e.fastPath = classification.NewDefaultFastPath()
	}

	trustModel, err := trust.NewModel(store, config.Trust, trust.WithClock(e.now), trust.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.trust = trustModel

	router, err := routing.NewRouter(trustModel, config.Routing, e.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	e.router = router

	capturer, err := correction.NewCapturer(config.Correction, correction.WithClock(e.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	e.capturer = capturer

	e.fallbackLimiter = ratelimit.New(config.FallbackLimit, config.RateWindow, ratelimit.WithClock(e.now))
	e.respondLimiter = ratelimit.New(config.RespondLimit, config.RateWindow, ratelimit.WithClock(e.now))

	return e, nil
}

// Trust returns the trust model.
func (e *Engine) Trust() *trust.Model {
	return e.trust
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Decide classifies the newest inbound message of thread and chooses an
// action for app. Only an invalid thread is an error; every other failure
// degrades to a conservative decision.
func (e *Engine) Decide(ctx context.Context, thread model.Thread, app model.AppConfig) (model.RouteDecision, error) {
	cls, err := e.Classify(ctx, app.AppID, thread)
	if err != nil {
		return model.RouteDecision{}, err
	}

	decision := e.router.Route(ctx, cls, app)

	if decision.Action == model.ActionRespond && !e.respondLimiter.Allow(app.AppID) {
		e.metrics.ObserveRateLimited(scopeRespond)
		e.logger.Warn("Autonomous send rate limit reached",
			"app_id", app.AppID,
			"conversation_id", thread.ConversationID)
		decision.Action = model.ActionSupportTeammate
		decision.Reasoning = "autonomous send rate limit reached; held for review"
	}

	e.metrics.ObserveDecision(decision)
	e.logger.Info("Decision made",
		"app_id", app.AppID,
		"conversation_id", thread.ConversationID,
		"category", decision.Category,
		"source", decision.Source,
		"confidence", decision.Confidence,
		"action", decision.Action)

	return decision, nil
}

// DecideForApp looks up the app configuration and decides.
func (e *Engine) DecideForApp(ctx context.Context, appID string, thread model.Thread) (model.RouteDecision, error) {
	if e.apps == nil {
		return model.RouteDecision{}, fmt.Errorf("%w: no app configuration source", common.ErrMissingConfig)
	}
	app, err := e.apps.GetAppConfig(ctx, appID)
	if err != nil {
		return model.RouteDecision{}, fmt.Errorf("failed to load app %q: %w", appID, err)
	}
	return e.Decide(ctx, thread, app)
}

// Classify runs the fast path and, when it abstains, the fallback. The
// returned classification always carries a valid category.
func (e *Engine) Classify(ctx context.Context, appID string, thread model.Thread) (model.Classification, error) {
	if err := thread.Validate(); err != nil {
		return model.Classification{}, common.NewPreconditionError(common.ErrInvalidThread, err.Error())
	}

	sig := signals.Compute(thread)
	if cls := e.fastPath.Classify(thread, sig); cls != nil {
		return *cls, nil
	}

	e.metrics.ObserveAbstention()
	return e.classifyFallback(ctx, appID, thread, sig), nil
}

func (e *Engine) classifyFallback(ctx context.Context, appID string, thread model.Thread, sig model.ThreadSignals) model.Classification {
	unknown := func(reason string) model.Classification {
		return model.Classification{
			Category:  model.CategoryUnknown,
			Source:    model.SourceFallback,
			Reasoning: reason,
			Signals:   sig,
		}
	}

	if e.fallback == nil {
		return unknown("fast path abstained and no fallback is configured")
	}

	if !e.fallbackLimiter.Allow(appID) {
		e.metrics.ObserveRateLimited(scopeFallback)
		e.metrics.ObserveFallback(metrics.FallbackRateLimited, 0)
		e.logger.Warn("Fallback rate limit reached",
			"app_id", appID,
			"conversation_id", thread.ConversationID)
		return unknown("fallback rate limit reached")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.config.FallbackTimeout)
	defer cancel()

	start := time.Now()
	result, err := e.callFallback(callCtx, thread)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			e.metrics.ObserveFallback(metrics.FallbackTimeout, elapsed)
			e.logger.Warn("Fallback timed out",
				"conversation_id", thread.ConversationID,
				"timeout", e.config.FallbackTimeout)
			return unknown(common.ErrFallbackTimeout.Error())
		}
		e.metrics.ObserveFallback(metrics.FallbackError, elapsed)
		e.logger.Warn("Fallback unavailable",
			"conversation_id", thread.ConversationID,
			"error", err)
		return unknown(common.ErrFallbackUnavailable.Error())
	}

	category, parseErr := model.ParseCategory(strings.ToLower(strings.TrimSpace(result.Category)))
	if parseErr != nil {
		e.metrics.ObserveFallback(metrics.FallbackInvalid, elapsed)
		e.logger.Warn("Fallback returned an invalid category",
			"conversation_id", thread.ConversationID,
			"category", result.Category)
		return unknown(fmt.Sprintf("fallback returned invalid category %q", result.Category))
	}

	e.metrics.ObserveFallback(metrics.FallbackOK, elapsed)
	confidence := model.ClampConfidence(result.Confidence)
	if category == model.CategoryUnknown {
		confidence = 0
	}
	return model.Classification{
		Category:   category,
		Confidence: confidence,
		Reasoning:  result.Reasoning,
		Signals:    sig,
		Source:     model.SourceFallback,
	}
}

type fallbackReply struct {
	err    error
	result model.FallbackResult
}

// callFallback runs the fallback under ctx. It returns as soon as ctx is done
// even if the fallback ignores it; a result that arrives later is dropped.
func (e *Engine) callFallback(ctx context.Context, thread model.Thread) (model.FallbackResult, error) {
	done := make(chan fallbackReply, 1)
	go func() {
		result, err := e.fallback.Classify(ctx, thread)
		done <- fallbackReply{result: result, err: err}
	}()

	select {
	case reply := <-done:
		if reply.err == nil && ctx.Err() != nil {
			return model.FallbackResult{}, ctx.Err()
		}
		return reply.result, reply.err
	case <-ctx.Done():
		e.logger.Debug("Discarding late fallback result",
			"conversation_id", thread.ConversationID)
		return model.FallbackResult{}, ctx.Err()
	}
}
