package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_ParentCancelIsNotAnInterrupt(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = handler.HandleInterrupts(ctx, nil)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should follow its parent")
	}
	assert.False(t, handler.WasInterrupted())
}

func TestInterruptMessage(t *testing.T) {
	tests := []struct {
		progress    func() string
		name        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with progress",
			progress: func() string { return "12 of 40 threads replayed" },
			expected: []string{"Interrupted!", "12 of 40 threads replayed"},
		},
		{
			name:        "without progress",
			expected:    []string{"Interrupted!"},
			notExpected: []string{"replayed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, progress: tt.progress}

			handler.interrupt()
			handler.interrupt()

			outputStr := output.String()
			assert.True(t, handler.WasInterrupted())
			assert.Equal(t, 1, strings.Count(outputStr, "Interrupted!"), "message is shown once")
			for _, expected := range tt.expected {
				assert.Contains(t, outputStr, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, outputStr, notExpected)
			}
		})
	}
}
