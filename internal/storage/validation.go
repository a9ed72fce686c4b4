// Package storage provides the SQLite persistence layer for the triage engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrInvalidTrustScore = errors.New("invalid trust score")
	ErrInvalidCorrection = errors.New("invalid correction")
	ErrInvalidAppConfig  = errors.New("invalid app config")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTrustKey validates the (app, category) pair of a trust row.
func validateTrustKey(key model.TrustKey) error {
	if strings.TrimSpace(key.AppID) == "" {
		return fmt.Errorf("%w: missing app ID", ErrInvalidTrustScore)
	}
	if !key.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidTrustScore, key.Category)
	}
	return nil
}

// validateTrustScore validates a trust row before it is written.
func validateTrustScore(score model.TrustScore) error {
	if err := validateTrustKey(score.Key()); err != nil {
		return err
	}
	if score.Score < 0 || score.Score > 1 {
		return fmt.Errorf("%w: score must be between 0 and 1", ErrInvalidTrustScore)
	}
	if score.SampleCount < 0 {
		return fmt.Errorf("%w: negative sample count", ErrInvalidTrustScore)
	}
	return nil
}

// validateCorrection validates a correction record.
func validateCorrection(c model.Correction) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCorrection)
	}
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("%w: missing app ID", ErrInvalidCorrection)
	}
	switch c.Type {
	case model.CorrectionDraftEdit, model.CorrectionReclassification, model.CorrectionEscalationOverride:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCorrection, c.Type)
	}
	switch c.Severity {
	case model.SeverityMinor, model.SeverityModerate, model.SeverityMajor:
	default:
		return fmt.Errorf("%w: unknown severity %q", ErrInvalidCorrection, c.Severity)
	}
	if !c.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidCorrection, c.Category)
	}
	return nil
}

// validateAppConfig validates per-tenant configuration.
func validateAppConfig(app model.AppConfig) error {
	if strings.TrimSpace(app.AppID) == "" {
		return fmt.Errorf("%w: missing app ID", ErrInvalidAppConfig)
	}
	if app.InstructorConfigured && strings.TrimSpace(app.InstructorTeammateID) == "" {
		return fmt.Errorf("%w: instructor configured without teammate ID", ErrInvalidAppConfig)
	}
	return nil
}
