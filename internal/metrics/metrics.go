// Package metrics exposes Prometheus instruments for the decision engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/skillrecordings/support-sub010/internal/model"
)

// Fallback result labels.
const (
	FallbackOK          = "ok"
	FallbackError       = "error"
	FallbackTimeout     = "timeout"
	FallbackRateLimited = "rate_limited"
	FallbackInvalid     = "invalid_category"
)

// Metrics holds Prometheus metrics for the decision engine. A nil *Metrics is
// valid and records nothing.
//
// Metrics:
//   - triage_decisions_total{action,source,category} - routed decisions
//   - triage_fast_path_abstentions_total - threads the rule table could not label
//   - triage_fallback_requests_total{result} - fallback calls by result
//   - triage_fallback_duration_seconds - fallback latency
//   - triage_outcomes_total{outcome,applied} - outcome events
//   - triage_corrections_total{type,severity} - captured corrections
//   - triage_trust_score{app,category} - last observed trust score
//   - triage_rate_limited_total{scope} - requests rejected by the rate limiter
type Metrics struct {
	DecisionsTotal      *prometheus.CounterVec
	FastPathAbstentions prometheus.Counter
	FallbackTotal       *prometheus.CounterVec
	FallbackDuration    prometheus.Histogram
	OutcomesTotal       *prometheus.CounterVec
	CorrectionsTotal    *prometheus.CounterVec
	TrustScore          *prometheus.GaugeVec
	RateLimitedTotal    *prometheus.CounterVec
}

// New creates the engine metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_decisions_total",
				Help: "Total number of routed decisions",
			},
			[]string{"action", "source", "category"},
		),
		FastPathAbstentions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_fast_path_abstentions_total",
				Help: "Total number of threads the fast path abstained on",
			},
		),
		FallbackTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_fallback_requests_total",
				Help: "Total number of fallback classifier calls by result",
			},
			[]string{"result"},
		),
		FallbackDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "triage_fallback_duration_seconds",
				Help:    "Duration of fallback classifier calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms to ~13s
			},
		),
		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_outcomes_total",
				Help: "Total number of outcome events",
			},
			[]string{"outcome", "applied"},
		),
		CorrectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_corrections_total",
				Help: "Total number of captured corrections",
			},
			[]string{"type", "severity"},
		),
		TrustScore: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "triage_trust_score",
				Help: "Last observed trust score per app and category",
			},
			[]string{"app", "category"},
		),
		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"scope"},
		),
	}
}

// ObserveDecision counts one routed decision.
func (m *Metrics) ObserveDecision(d model.RouteDecision) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(string(d.Action), string(d.Source), string(d.Category)).Inc()
}

// ObserveAbstention counts one fast path abstention.
func (m *Metrics) ObserveAbstention() {
	if m == nil {
		return
	}
	m.FastPathAbstentions.Inc()
}

// ObserveFallback records one fallback call.
func (m *Metrics) ObserveFallback(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FallbackTotal.WithLabelValues(result).Inc()
	m.FallbackDuration.Observe(elapsed.Seconds())
}

// ObserveOutcome counts one outcome event and tracks the resulting score.
func (m *Metrics) ObserveOutcome(event model.OutcomeEvent, score model.TrustScore, applied bool) {
	if m == nil {
		return
	}
	appliedLabel := "false"
	if applied {
		appliedLabel = "true"
	}
	m.OutcomesTotal.WithLabelValues(string(event.Outcome), appliedLabel).Inc()
	m.SetTrustScore(score)
}

// ObserveCorrection counts one captured correction.
func (m *Metrics) ObserveCorrection(c model.Correction) {
	if m == nil {
		return
	}
	m.CorrectionsTotal.WithLabelValues(string(c.Type), string(c.Severity)).Inc()
}

// SetTrustScore publishes the current value of a trust row.
func (m *Metrics) SetTrustScore(score model.TrustScore) {
	if m == nil || score.AppID == "" {
		return
	}
	m.TrustScore.WithLabelValues(score.AppID, string(score.Category)).Set(score.Score)
}

// ObserveRateLimited counts one rejected request.
func (m *Metrics) ObserveRateLimited(scope string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(scope).Inc()
}
