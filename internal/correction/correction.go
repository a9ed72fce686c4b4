// Package correction detects when a human changed or overrode an automated
// decision and records how wrong the decision was.
package correction

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/signals"
)

// Default grading thresholds.
const (
	DefaultEditThreshold  = 0.10
	DefaultMinorEditBelow = 0.20
	DefaultMajorEditAbove = 0.50
	DefaultHighConfidence = 0.75
)

// Config holds the grading thresholds.
type Config struct {
	EditThreshold  float64 `mapstructure:"edit_threshold"`
	MinorEditBelow float64 `mapstructure:"minor_edit_below"`
	MajorEditAbove float64 `mapstructure:"major_edit_above"`
	HighConfidence float64 `mapstructure:"high_confidence"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		EditThreshold:  DefaultEditThreshold,
		MinorEditBelow: DefaultMinorEditBelow,
		MajorEditAbove: DefaultMajorEditAbove,
		HighConfidence: DefaultHighConfidence,
	}
}

// Validate checks that the thresholds are ordered and in range.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"edit_threshold":   c.EditThreshold,
		"minor_edit_below": c.MinorEditBelow,
		"major_edit_above": c.MajorEditAbove,
		"high_confidence":  c.HighConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s %.2f out of range [0,1]", name, v)
		}
	}
	if c.MinorEditBelow > c.MajorEditAbove {
		return fmt.Errorf("minor_edit_below %.2f exceeds major_edit_above %.2f", c.MinorEditBelow, c.MajorEditAbove)
	}
	return nil
}

// DraftEditInput describes a draft and the message a human actually sent.
type DraftEditInput struct {
	AppID          string
	ConversationID string
	Category       model.Category
	Draft          string
	Sent           string
}

// ReclassificationInput describes a human moving a conversation to another
// category.
type ReclassificationInput struct {
	AppID          string
	ConversationID string
	From           model.Category
	To             model.Category
	Confidence     float64
}

// EscalationOverrideInput describes a human choosing a different action than
// the router did.
type EscalationOverrideInput struct {
	AppID          string
	ConversationID string
	Category       model.Category
	From           model.Action
	To             model.Action
}

// Capturer turns human divergence into correction records.
type Capturer struct {
	now    func() time.Time
	newID  func() string
	config Config
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(c *Capturer) { c.now = now }
}

// WithIDGenerator replaces the correction ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *Capturer) { c.newID = newID }
}

// NewCapturer creates a capturer with config.
func NewCapturer(config Config, opts ...Option) (*Capturer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Capturer{
		config: config,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DraftEdit grades the difference between a draft and what was sent. Edits
// below the threshold are not meaningful and yield ok=false.
func (c *Capturer) DraftEdit(in DraftEditInput) (*model.Correction, bool) {
	if in.AppID == "" || !in.Category.IsValid() {
		return nil, false
	}

	distance := EditDistance(in.Draft, in.Sent)
	if distance < c.config.EditThreshold {
		return nil, false
	}

	corr := c.base(model.CorrectionDraftEdit, in.AppID, in.ConversationID, in.Category)
	corr.Draft = in.Draft
	corr.Sent = in.Sent
	corr.EditDistance = distance
	corr.Severity = c.editSeverity(distance)
	return corr, true
}

// Reclassification grades a category change. Moving to the same category is
// not a correction.
func (c *Capturer) Reclassification(in ReclassificationInput) (*model.Correction, bool) {
	if in.AppID == "" || !in.From.IsValid() || !in.To.IsValid() || in.From == in.To {
		return nil, false
	}

	sameFamily := in.From.Family() == in.To.Family()
	confident := in.Confidence >= c.config.HighConfidence

	var severity model.Severity
	switch {
	case !sameFamily && confident:
		severity = model.SeverityMajor
	case sameFamily && !confident:
		severity = model.SeverityMinor
	default:
		severity = model.SeverityModerate
	}

	corr := c.base(model.CorrectionReclassification, in.AppID, in.ConversationID, in.From)
	corr.FromCategory = in.From
	corr.ToCategory = in.To
	corr.OriginalConfidence = model.ClampConfidence(in.Confidence)
	corr.Severity = severity
	return corr, true
}

// EscalationOverride grades a change of action. Sending something further
// down the escalation scale than a human wanted is worse than sending it too
// far up.
func (c *Capturer) EscalationOverride(in EscalationOverrideInput) (*model.Correction, bool) {
	if in.AppID == "" || !in.From.IsValid() || !in.To.IsValid() || in.From == in.To {
		return nil, false
	}

	diff := in.To.EscalationRank() - in.From.EscalationRank()
	var severity model.Severity
	if diff > 0 {
		// Under-escalation: the human escalated further.
		if diff == 1 {
			severity = model.SeverityModerate
		} else {
			severity = model.SeverityMajor
		}
	} else {
		switch -diff {
		case 1:
			severity = model.SeverityMinor
		case 2:
			severity = model.SeverityModerate
		default:
			severity = model.SeverityMajor
		}
	}

	category := in.Category
	if !category.IsValid() {
		category = model.CategoryUnknown
	}
	corr := c.base(model.CorrectionEscalationOverride, in.AppID, in.ConversationID, category)
	corr.FromAction = in.From
	corr.ToAction = in.To
	corr.Severity = severity
	return corr, true
}

func (c *Capturer) base(typ model.CorrectionType, appID, conversationID string, category model.Category) *model.Correction {
	return &model.Correction{
		ID:             c.newID(),
		CreatedAt:      c.now().UTC(),
		Type:           typ,
		AppID:          appID,
		ConversationID: conversationID,
		Category:       category,
	}
}

func (c *Capturer) editSeverity(distance float64) model.Severity {
	switch {
	case distance < c.config.MinorEditBelow:
		return model.SeverityMinor
	case distance > c.config.MajorEditAbove:
		return model.SeverityMajor
	default:
		return model.SeverityModerate
	}
}

// EditDistance returns the Levenshtein distance between the normalised forms
// of a and b divided by the longer normalised length, in [0,1]. Punctuation is
// ignored, so "Hi" and "Hi!" are identical.
func EditDistance(a, b string) float64 {
	a, b = comparableText(a), comparableText(b)
	if a == b {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// comparableText lowercases text, drops punctuation and collapses whitespace.
func comparableText(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)
	return signals.Normalize(text)
}

