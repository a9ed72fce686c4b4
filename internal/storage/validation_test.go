package storage

import (
	"context"
	"testing"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, validateString("x", "p"))
	assert.ErrorIs(t, validateString("", "p"), ErrEmptyString)
	assert.ErrorIs(t, validateString("  \t", "p"), ErrEmptyString)
}

func TestValidateCorrection(t *testing.T) {
	valid := model.Correction{
		ID:       "c",
		AppID:    "app",
		Type:     model.CorrectionReclassification,
		Severity: model.SeverityMinor,
		Category: model.CategorySupportAccess,
	}

	tests := []struct {
		mutate  func(*model.Correction)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.Correction) {}},
		{name: "missing id", mutate: func(c *model.Correction) { c.ID = "" }, wantErr: true},
		{name: "missing app", mutate: func(c *model.Correction) { c.AppID = " " }, wantErr: true},
		{name: "bad type", mutate: func(c *model.Correction) { c.Type = "x" }, wantErr: true},
		{name: "bad severity", mutate: func(c *model.Correction) { c.Severity = "critical" }, wantErr: true},
		{name: "bad category", mutate: func(c *model.Correction) { c.Category = "x" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := validateCorrection(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCorrection)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateAppConfig(t *testing.T) {
	assert.NoError(t, validateAppConfig(model.AppConfig{AppID: "app"}))
	assert.ErrorIs(t, validateAppConfig(model.AppConfig{}), ErrInvalidAppConfig)
	assert.ErrorIs(t, validateAppConfig(model.AppConfig{AppID: "app", InstructorConfigured: true}), ErrInvalidAppConfig)
}
