// Package routing maps a classification and an app's configuration onto the
// action the triage engine takes next.
package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// DefaultConfidenceFloor is the minimum classification confidence the router
// acts on without a human.
const DefaultConfidenceFloor = 0.55

// TrustReader answers whether a category has earned autonomous sending.
type TrustReader interface {
	ShouldAutoSend(ctx context.Context, appID string, category model.Category) (bool, error)
}

// Config tunes routing.
type Config struct {
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
}

// DefaultConfig returns the standard routing configuration.
func DefaultConfig() Config {
	return Config{ConfidenceFloor: DefaultConfidenceFloor}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence floor %.2f out of range [0,1]", c.ConfidenceFloor)
	}
	return nil
}

// Router chooses an action for a classification. The first matching step of
// the table wins.
type Router struct {
	trust  TrustReader
	logger *slog.Logger
	steps  []step
	config Config
}

// step is one row of the routing table. A step returns ok=false when it does
// not apply.
type step struct {
	apply func(ctx context.Context, cls model.Classification, app model.AppConfig) (model.Action, string, bool)
	name  string
}

// silenceSet are categories that never warrant a reply.
var silenceSet = map[model.Category]bool{
	model.CategorySpam:     true,
	model.CategorySystem:   true,
	model.CategoryResolved: true,
}

// trustGated are categories the engine may answer on its own once trusted.
var trustGated = map[model.Category]bool{
	model.CategorySupportAccess:    true,
	model.CategorySupportTechnical: true,
	model.CategoryPresalesFAQ:      true,
}

// NewRouter creates a router backed by trust. A nil logger uses slog.Default.
func NewRouter(trust TrustReader, config Config, logger *slog.Logger) (*Router, error) {
	if trust == nil {
		return nil, fmt.Errorf("trust reader is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Router{trust: trust, config: config, logger: logger}
	r.steps = []step{
		{name: "urgent", apply: r.urgent},
		{name: "unknown", apply: unknown},
		{name: "confidence_floor", apply: r.belowFloor},
		{name: "never_auto_send", apply: neverAutoSend},
		{name: "silence", apply: silence},
		{name: "fan_mail", apply: fanMail},
		{name: "sales_conversation", apply: salesConversation},
		{name: "teammate_engaged", apply: teammateEngaged},
		{name: "trust_gate", apply: r.trustGate},
	}
	return r, nil
}

// Route returns the decision for cls under app. It never fails: anything the
// table cannot place goes to a support teammate.
func (r *Router) Route(ctx context.Context, cls model.Classification, app model.AppConfig) model.RouteDecision {
	decision := model.RouteDecision{
		Category:   cls.Category,
		Source:     cls.Source,
		Confidence: cls.Confidence,
	}

	for _, s := range r.steps {
		action, reasoning, ok := s.apply(ctx, cls, app)
		if !ok {
			continue
		}
		decision.Action = action
		decision.Reasoning = reasoning
		r.logger.Debug("Routed classification",
			"app_id", app.AppID,
			"category", cls.Category,
			"step", s.name,
			"action", action)
		return decision
	}

	decision.Action = model.ActionSupportTeammate
	decision.Reasoning = fmt.Sprintf("no routing rule for category %q", cls.Category)
	return decision
}

// Config returns the active routing configuration.
func (r *Router) Config() Config {
	return r.config
}

func (r *Router) urgent(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if !cls.Signals.HasUrgency || silenceSet[cls.Category] {
		return "", "", false
	}
	return model.ActionEscalateUrgent, "urgent language in the customer's message", true
}

func unknown(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if cls.Category != model.CategoryUnknown && cls.Category.IsValid() {
		return "", "", false
	}
	return model.ActionSupportTeammate, "needs human classification", true
}

func (r *Router) belowFloor(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if cls.Confidence >= r.config.ConfidenceFloor {
		return "", "", false
	}
	return model.ActionSupportTeammate,
		fmt.Sprintf("confidence %.2f below floor %.2f", cls.Confidence, r.config.ConfidenceFloor), true
}

func neverAutoSend(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if !cls.Category.NeverAutoSend() {
		return "", "", false
	}
	return model.ActionSupportTeammate,
		fmt.Sprintf("%s always needs human approval; draft held for review", cls.Category), true
}

func silence(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if !silenceSet[cls.Category] {
		return "", "", false
	}
	return model.ActionSilence, fmt.Sprintf("%s needs no reply", cls.Category), true
}

func fanMail(_ context.Context, cls model.Classification, app model.AppConfig) (model.Action, string, bool) {
	if cls.Category != model.CategoryFanMail {
		return "", "", false
	}
	if app.InstructorConfigured {
		return model.ActionEscalateInstructor, "personal message for the instructor", true
	}
	return model.ActionSupportTeammate, "personal message for the instructor; no instructor configured", true
}

func salesConversation(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if cls.Category != model.CategoryPresalesConsult && cls.Category != model.CategoryPresalesTeam {
		return "", "", false
	}
	return model.ActionSupportTeammate, "sales conversation for a human", true
}

// teammateEngaged keeps the engine out of a conversation a human teammate is
// already handling.
func teammateEngaged(_ context.Context, cls model.Classification, _ model.AppConfig) (model.Action, string, bool) {
	if !trustGated[cls.Category] || !cls.Signals.TeammateEngaged {
		return "", "", false
	}
	return model.ActionSupportTeammate, "teammate already engaged; draft held for review", true
}

func (r *Router) trustGate(ctx context.Context, cls model.Classification, app model.AppConfig) (model.Action, string, bool) {
	if !trustGated[cls.Category] {
		return "", "", false
	}
	if !app.AutoSendEnabled {
		return model.ActionSupportTeammate, "auto-send disabled for app; draft held for review", true
	}

	ok, err := r.trust.ShouldAutoSend(ctx, app.AppID, cls.Category)
	if err != nil {
		r.logger.Warn("Trust lookup failed, holding draft",
			"app_id", app.AppID,
			"category", cls.Category,
			"error", err)
		return model.ActionSupportTeammate, "trust unavailable; draft held for review", true
	}
	if !ok {
		return model.ActionSupportTeammate, "trust below auto-send threshold; draft held for review", true
	}
	return model.ActionRespond, "trusted to respond autonomously", true
}
