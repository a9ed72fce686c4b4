package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTrust struct {
	err     error
	allowed map[model.Category]bool
	calls   int
}

func (s *stubTrust) ShouldAutoSend(_ context.Context, _ string, category model.Category) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.allowed[category], nil
}

func classification(category model.Category, confidence float64) model.Classification {
	return model.Classification{
		Category:   category,
		Source:     model.SourceFastPath,
		Confidence: confidence,
	}
}

func newTestRouter(t *testing.T, trust TrustReader) *Router {
	t.Helper()
	r, err := NewRouter(trust, DefaultConfig(), nil)
	require.NoError(t, err)
	return r
}

func TestRouter_Route(t *testing.T) {
	trustAll := &stubTrust{allowed: map[model.Category]bool{
		model.CategorySupportAccess:    true,
		model.CategorySupportTechnical: true,
		model.CategoryPresalesFAQ:      true,
		model.CategorySupportRefund:    true,
		model.CategorySupportTransfer:  true,
		model.CategorySupportBilling:   true,
	}}
	enabled := model.AppConfig{AppID: "app", AutoSendEnabled: true, InstructorConfigured: true}

	urgent := classification(model.CategorySupportAccess, 0.9)
	urgent.Signals.HasUrgency = true
	urgentSpam := classification(model.CategorySpam, 0.9)
	urgentSpam.Signals.HasUrgency = true
	urgentLowConfidence := classification(model.CategoryUnknown, 0)
	urgentLowConfidence.Signals.HasUrgency = true

	engaged := classification(model.CategorySupportAccess, 0.9)
	engaged.Signals.TeammateEngaged = true
	engagedFan := classification(model.CategoryFanMail, 0.8)
	engagedFan.Signals.TeammateEngaged = true

	tests := []struct {
		name string
		cls  model.Classification
		app  model.AppConfig
		want model.Action
	}{
		{name: "teammate engaged holds trusted category", cls: engaged, app: enabled, want: model.ActionSupportTeammate},
		{name: "teammate engaged does not block instructor", cls: engagedFan, app: enabled, want: model.ActionEscalateInstructor},
		{name: "urgent wins over trust", cls: urgent, app: enabled, want: model.ActionEscalateUrgent},
		{name: "urgent wins over unknown", cls: urgentLowConfidence, app: enabled, want: model.ActionEscalateUrgent},
		{name: "urgent spam stays silent", cls: urgentSpam, app: enabled, want: model.ActionSilence},
		{name: "unknown", cls: classification(model.CategoryUnknown, 0.9), app: enabled, want: model.ActionSupportTeammate},
		{name: "unrecognised category", cls: classification("bogus", 0.9), app: enabled, want: model.ActionSupportTeammate},
		{name: "below floor", cls: classification(model.CategorySupportAccess, 0.5), app: enabled, want: model.ActionSupportTeammate},
		{name: "spam below floor is still held", cls: classification(model.CategorySpam, 0.3), app: enabled, want: model.ActionSupportTeammate},
		{name: "refund never auto-sent", cls: classification(model.CategorySupportRefund, 1), app: enabled, want: model.ActionSupportTeammate},
		{name: "transfer never auto-sent", cls: classification(model.CategorySupportTransfer, 1), app: enabled, want: model.ActionSupportTeammate},
		{name: "billing never auto-sent", cls: classification(model.CategorySupportBilling, 1), app: enabled, want: model.ActionSupportTeammate},
		{name: "spam", cls: classification(model.CategorySpam, 0.9), app: enabled, want: model.ActionSilence},
		{name: "system", cls: classification(model.CategorySystem, 0.9), app: enabled, want: model.ActionSilence},
		{name: "resolved", cls: classification(model.CategoryResolved, 0.9), app: enabled, want: model.ActionSilence},
		{name: "fan mail with instructor", cls: classification(model.CategoryFanMail, 0.8), app: enabled, want: model.ActionEscalateInstructor},
		{name: "fan mail without instructor", cls: classification(model.CategoryFanMail, 0.8), app: model.AppConfig{AppID: "app"}, want: model.ActionSupportTeammate},
		{name: "consult", cls: classification(model.CategoryPresalesConsult, 0.8), app: enabled, want: model.ActionSupportTeammate},
		{name: "team", cls: classification(model.CategoryPresalesTeam, 0.8), app: enabled, want: model.ActionSupportTeammate},
		{name: "trusted access responds", cls: classification(model.CategorySupportAccess, 0.9), app: enabled, want: model.ActionRespond},
		{name: "trusted presales faq responds", cls: classification(model.CategoryPresalesFAQ, 0.9), app: enabled, want: model.ActionRespond},
		{name: "auto-send disabled", cls: classification(model.CategorySupportTechnical, 0.9), app: model.AppConfig{AppID: "app"}, want: model.ActionSupportTeammate},
	}

	r := newTestRouter(t, trustAll)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Route(context.Background(), tt.cls, tt.app)
			assert.Equal(t, tt.want, got.Action)
			assert.NotEmpty(t, got.Reasoning)
			assert.Equal(t, tt.cls.Category, got.Category)
			assert.Equal(t, tt.cls.Source, got.Source)
		})
	}
}

func TestRouter_LowTrustHoldsDraft(t *testing.T) {
	trust := &stubTrust{allowed: map[model.Category]bool{}}
	r := newTestRouter(t, trust)

	got := r.Route(context.Background(),
		classification(model.CategorySupportAccess, 0.95),
		model.AppConfig{AppID: "app", AutoSendEnabled: true})

	assert.Equal(t, model.ActionSupportTeammate, got.Action)
	assert.Contains(t, got.Reasoning, "trust below")
	assert.Equal(t, 1, trust.calls)
}

func TestRouter_TrustFailureDegrades(t *testing.T) {
	r := newTestRouter(t, &stubTrust{err: errors.New("database is locked")})

	got := r.Route(context.Background(),
		classification(model.CategorySupportTechnical, 0.95),
		model.AppConfig{AppID: "app", AutoSendEnabled: true})

	assert.Equal(t, model.ActionSupportTeammate, got.Action)
	assert.Contains(t, got.Reasoning, "trust unavailable")
}

func TestRouter_NeverAutoSendSkipsTrust(t *testing.T) {
	trust := &stubTrust{allowed: map[model.Category]bool{model.CategorySupportRefund: true}}
	r := newTestRouter(t, trust)

	for _, c := range model.NeverAutoSendCategories() {
		got := r.Route(context.Background(), classification(c, 1), model.AppConfig{AppID: "app", AutoSendEnabled: true})
		assert.Equal(t, model.ActionSupportTeammate, got.Action, c)
	}
	assert.Zero(t, trust.calls)
}

func TestRouter_CustomFloor(t *testing.T) {
	r, err := NewRouter(&stubTrust{}, Config{ConfidenceFloor: 0.95}, nil)
	require.NoError(t, err)

	got := r.Route(context.Background(), classification(model.CategorySpam, 0.9), model.AppConfig{AppID: "app"})
	assert.Equal(t, model.ActionSupportTeammate, got.Action)
	assert.Equal(t, 0.95, r.Config().ConfidenceFloor)
}

func TestNewRouter_Validation(t *testing.T) {
	_, err := NewRouter(nil, DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = NewRouter(&stubTrust{}, Config{ConfidenceFloor: 1.2}, nil)
	assert.Error(t, err)
}

func TestRouter_TeammateEngagedSkipsTrust(t *testing.T) {
	trust := &stubTrust{allowed: map[model.Category]bool{model.CategorySupportTechnical: true}}
	r := newTestRouter(t, trust)

	cls := classification(model.CategorySupportTechnical, 0.95)
	cls.Signals.TeammateEngaged = true
	got := r.Route(context.Background(), cls, model.AppConfig{AppID: "app", AutoSendEnabled: true})

	assert.Equal(t, model.ActionSupportTeammate, got.Action)
	assert.Contains(t, got.Reasoning, "teammate already engaged")
	assert.Zero(t, trust.calls)
}
