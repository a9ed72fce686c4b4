package model

import (
	"fmt"
	"time"
)

// TrustKey identifies one trust row.
type TrustKey struct {
	AppID    string
	Category Category
}

func (k TrustKey) String() string {
	return k.AppID + "/" + string(k.Category)
}

// TrustScore is how far the engine may be trusted to act alone for one app and
// category. SampleCount is diagnostic only and never gates a decision.
type TrustScore struct {
	UpdatedAt   time.Time `json:"updated_at"`
	AppID       string    `json:"app_id"`
	Category    Category  `json:"category"`
	Score       float64   `json:"score"`
	SampleCount int       `json:"sample_count"`
}

// Key returns the row key of s.
func (s TrustScore) Key() TrustKey {
	return TrustKey{AppID: s.AppID, Category: s.Category}
}

// Outcome is what happened to an automated decision once a human saw it.
type Outcome string

// Outcome constants.
const (
	OutcomeSentUnchanged     Outcome = "sent_unchanged"
	OutcomeSentWithMinorEdit Outcome = "sent_with_minor_edit"
	OutcomeSentWithMajorEdit Outcome = "sent_with_major_edit"
	OutcomeOverridden        Outcome = "overridden"
	OutcomeRejected          Outcome = "rejected"
)

// IsValid reports whether o is a known outcome.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSentUnchanged, OutcomeSentWithMinorEdit, OutcomeSentWithMajorEdit, OutcomeOverridden, OutcomeRejected:
		return true
	}
	return false
}

// ParseOutcome converts a string into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.IsValid() {
		return "", fmt.Errorf("unknown outcome %q", s)
	}
	return o, nil
}

// OutcomeEvent is one observed outcome. A non-empty ID lets the trust model
// drop a duplicate submission of the same event.
type OutcomeEvent struct {
	ID       string   `json:"id,omitempty"`
	AppID    string   `json:"app_id"`
	Category Category `json:"category"`
	Outcome  Outcome  `json:"outcome"`
}
