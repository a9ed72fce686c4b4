package model

import "time"

// CorrectionType identifies the kind of human divergence that was captured.
type CorrectionType string

// Correction type constants.
const (
	CorrectionDraftEdit          CorrectionType = "draft_edit"
	CorrectionReclassification   CorrectionType = "reclassification"
	CorrectionEscalationOverride CorrectionType = "escalation_override"
)

// Severity grades how wrong the automated decision was.
type Severity string

// Severity constants.
const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// Correction is an immutable record of a human editing or overriding an
// automated decision. Each correction is folded into trust exactly once.
type Correction struct {
	CreatedAt      time.Time      `json:"created_at"`
	ID             string         `json:"id"`
	Type           CorrectionType `json:"type"`
	AppID          string         `json:"app_id"`
	ConversationID string         `json:"conversation_id"`
	// Category is the trust row this correction erodes.
	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	// draft_edit
	Draft        string  `json:"draft,omitempty"`
	Sent         string  `json:"sent,omitempty"`
	EditDistance float64 `json:"edit_distance,omitempty"`

	// reclassification
	FromCategory       Category `json:"from_category,omitempty"`
	ToCategory         Category `json:"to_category,omitempty"`
	OriginalConfidence float64  `json:"original_confidence,omitempty"`

	// escalation_override
	FromAction Action `json:"from_action,omitempty"`
	ToAction   Action `json:"to_action,omitempty"`
}

// Outcome maps the correction onto the outcome fed to the trust model.
func (c Correction) Outcome() Outcome {
	switch c.Type {
	case CorrectionDraftEdit:
		if c.Severity == SeverityMinor {
			return OutcomeSentWithMinorEdit
		}
		return OutcomeSentWithMajorEdit
	case CorrectionReclassification, CorrectionEscalationOverride:
		if c.Severity == SeverityMinor {
			return OutcomeSentWithMinorEdit
		}
		return OutcomeOverridden
	default:
		return OutcomeRejected
	}
}

// Event converts the correction into a trust outcome event keyed by its ID.
func (c Correction) Event() OutcomeEvent {
	return OutcomeEvent{
		ID:       c.ID,
		AppID:    c.AppID,
		Category: c.Category,
		Outcome:  c.Outcome(),
	}
}
