package engine

import (
	"context"
	"fmt"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/correction"
	"github.com/skillrecordings/support-sub010/internal/model"
)

// CorrectionInput describes one human divergence from an automated decision.
// Type selects which of the remaining fields are read.
type CorrectionInput struct {
	Type           model.CorrectionType `json:"type"`
	AppID          string               `json:"app_id"`
	ConversationID string               `json:"conversation_id"`
	// Category is the trust row for draft edits and escalation overrides.
	Category model.Category `json:"category,omitempty"`
	// draft_edit
	Draft string `json:"draft,omitempty"`
	Sent  string `json:"sent,omitempty"`
	// reclassification
	FromCategory model.Category `json:"from_category,omitempty"`
	ToCategory   model.Category `json:"to_category,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
	// escalation_override
	FromAction model.Action `json:"from_action,omitempty"`
	ToAction   model.Action `json:"to_action,omitempty"`
}

// FeedbackResult is what a correction or send did to trust.
type FeedbackResult struct {
	Correction *model.Correction `json:"correction,omitempty"`
	Outcome    model.Outcome     `json:"outcome,omitempty"`
	Score      *model.TrustScore `json:"score,omitempty"`
	Captured   bool              `json:"captured"`
	Applied    bool              `json:"applied"`
}

// RecordOutcome applies outcome to the (appID, category) trust row.
func (e *Engine) RecordOutcome(ctx context.Context, appID string, category model.Category, outcome model.Outcome) (model.TrustScore, error) {
	score, _, err := e.RecordOutcomeEvent(ctx, model.OutcomeEvent{AppID: appID, Category: category, Outcome: outcome})
	return score, err
}

// RecordOutcomeEvent applies an outcome event. An event whose ID was already
// applied leaves the score unchanged and reports applied=false.
func (e *Engine) RecordOutcomeEvent(ctx context.Context, event model.OutcomeEvent) (model.TrustScore, bool, error) {
	score, applied, err := e.trust.Record(ctx, event)
	if err != nil {
		return model.TrustScore{}, false, err
	}

	e.metrics.ObserveOutcome(event, score, applied)
	if applied {
		e.publish(func() error { return e.publisher.PublishOutcome(ctx, event, score) })
	}
	return score, applied, nil
}

// CaptureCorrection grades a human divergence. Divergences that are not
// meaningful, and malformed input, return Captured=false without error. A
// captured correction is stored, folded into trust once and published.
func (e *Engine) CaptureCorrection(ctx context.Context, in CorrectionInput) (FeedbackResult, error) {
	var (
		corr *model.Correction
		ok   bool
	)
	switch in.Type {
	case model.CorrectionDraftEdit:
		corr, ok = e.capturer.DraftEdit(correction.DraftEditInput{
			AppID:          in.AppID,
			ConversationID: in.ConversationID,
			Category:       in.Category,
			Draft:          in.Draft,
			Sent:           in.Sent,
		})
	case model.CorrectionReclassification:
		corr, ok = e.capturer.Reclassification(correction.ReclassificationInput{
			AppID:          in.AppID,
			ConversationID: in.ConversationID,
			From:           in.FromCategory,
			To:             in.ToCategory,
			Confidence:     in.Confidence,
		})
	case model.CorrectionEscalationOverride:
		corr, ok = e.capturer.EscalationOverride(correction.EscalationOverrideInput{
			AppID:          in.AppID,
			ConversationID: in.ConversationID,
			Category:       in.Category,
			From:           in.FromAction,
			To:             in.ToAction,
		})
	default:
		e.logger.Debug("Correction with unknown type ignored", "type", in.Type)
	}
	if !ok {
		return FeedbackResult{}, nil
	}
	return e.applyCorrection(ctx, corr, corr.ID)
}

// ObserveSend handles a message a human actually sent. When the engine had a
// draft for the conversation, a meaningful edit is captured as a correction
// and an unchanged send counts as sent_unchanged. Sends without a draft do not
// touch trust.
func (e *Engine) ObserveSend(ctx context.Context, in correction.CompareInput) (FeedbackResult, error) {
	if !in.HasDraft() {
		return FeedbackResult{}, nil
	}
	if in.AppID == "" || !in.Category.IsValid() {
		return FeedbackResult{}, common.NewPreconditionError(common.ErrInvalidInput,
			fmt.Sprintf("send for app %q category %q", in.AppID, in.Category))
	}

	eventID := ""
	if in.SendID != "" {
		eventID = "send:" + in.SendID
	}

	res := e.capturer.CompareAndCapture(in)
	if res.Captured {
		if eventID == "" {
			eventID = res.Correction.ID
		}
		return e.applyCorrection(ctx, res.Correction, eventID)
	}

	event := model.OutcomeEvent{
		ID:       eventID,
		AppID:    in.AppID,
		Category: in.Category,
		Outcome:  model.OutcomeSentUnchanged,
	}
	score, applied, err := e.RecordOutcomeEvent(ctx, event)
	if err != nil {
		return FeedbackResult{}, err
	}
	return FeedbackResult{Outcome: event.Outcome, Score: &score, Applied: applied}, nil
}

func (e *Engine) applyCorrection(ctx context.Context, corr *model.Correction, eventID string) (FeedbackResult, error) {
	// SaveCorrection is idempotent per correction ID.
	if e.sink != nil {
		if err := e.sink.SaveCorrection(ctx, *corr); err != nil {
			return FeedbackResult{}, fmt.Errorf("failed to save correction %s: %w", corr.ID, err)
		}
	}

	event := corr.Event()
	event.ID = eventID
	score, applied, err := e.RecordOutcomeEvent(ctx, event)
	if err != nil {
		return FeedbackResult{}, err
	}
	if applied {
		e.metrics.ObserveCorrection(*corr)
		e.publish(func() error { return e.publisher.PublishCorrection(ctx, *corr) })
	}

	e.logger.Info("Correction captured",
		"correction_id", corr.ID,
		"type", corr.Type,
		"severity", corr.Severity,
		"app_id", corr.AppID,
		"category", corr.Category,
		"score", score.Score,
		"applied", applied)

	return FeedbackResult{
		Correction: corr,
		Outcome:    event.Outcome,
		Score:      &score,
		Captured:   true,
		Applied:    applied,
	}, nil
}

// publish forwards an event; failures are logged and never fail the caller.
func (e *Engine) publish(send func() error) {
	if e.publisher == nil {
		return
	}
	if err := send(); err != nil {
		e.logger.Warn("Failed to publish event", "error", err)
	}
}
