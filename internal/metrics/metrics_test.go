package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveDecision(model.RouteDecision{Action: model.ActionRespond, Source: model.SourceFastPath, Category: model.CategorySupportAccess})
	m.ObserveDecision(model.RouteDecision{Action: model.ActionRespond, Source: model.SourceFastPath, Category: model.CategorySupportAccess})
	m.ObserveAbstention()
	m.ObserveFallback(FallbackTimeout, 8*time.Second)
	m.ObserveOutcome(
		model.OutcomeEvent{AppID: "app", Category: model.CategoryPresalesFAQ, Outcome: model.OutcomeRejected},
		model.TrustScore{AppID: "app", Category: model.CategoryPresalesFAQ, Score: 0.6},
		true,
	)
	m.ObserveCorrection(model.Correction{Type: model.CorrectionDraftEdit, Severity: model.SeverityMajor})
	m.ObserveRateLimited("app")

	assert.InDelta(t, 2, testutil.ToFloat64(m.DecisionsTotal.WithLabelValues("respond", "fast_path", "support_access")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FastPathAbstentions), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbackTotal.WithLabelValues(FallbackTimeout)), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OutcomesTotal.WithLabelValues("rejected", "true")), 1e-9)
	assert.InDelta(t, 0.6, testutil.ToFloat64(m.TrustScore.WithLabelValues("app", "presales_faq")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CorrectionsTotal.WithLabelValues("draft_edit", "major")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimitedTotal.WithLabelValues("app")), 1e-9)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision(model.RouteDecision{})
		m.ObserveAbstention()
		m.ObserveFallback(FallbackOK, time.Millisecond)
		m.ObserveOutcome(model.OutcomeEvent{}, model.TrustScore{}, false)
		m.ObserveCorrection(model.Correction{})
		m.SetTrustScore(model.TrustScore{AppID: "a"})
		m.ObserveRateLimited("x")
	})
}
