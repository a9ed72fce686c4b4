package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(dir Direction, body string, offset int) Message {
	return Message{
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute),
		Direction: dir,
		Body:      body,
	}
}

func TestNewThread(t *testing.T) {
	tests := []struct {
		name        string
		wantTrigger string
		messages    []Message
		wantLen     int
		wantErr     bool
	}{
		{
			name:        "single inbound",
			messages:    []Message{msg(DirectionInbound, "hi", 0)},
			wantLen:     1,
			wantTrigger: "hi",
		},
		{
			name: "trailing outbound is dropped",
			messages: []Message{
				msg(DirectionInbound, "help", 0),
				msg(DirectionOutbound, "on it", 1),
				msg(DirectionInbound, "thanks", 2),
				msg(DirectionOutbound, "draft reply", 3),
			},
			wantLen:     3,
			wantTrigger: "thanks",
		},
		{
			name:     "outbound only",
			messages: []Message{msg(DirectionOutbound, "newsletter", 0)},
			wantLen:  1,
			wantErr:  true,
		},
		{
			name:    "empty",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewThread("conv-1", tt.messages)
			assert.Equal(t, "conv-1", th.ConversationID)
			assert.Len(t, th.Messages, tt.wantLen)

			err := th.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTrigger, th.Trigger.Body)
		})
	}
}

func TestNewThread_DoesNotAliasInput(t *testing.T) {
	in := []Message{msg(DirectionInbound, "original", 0)}
	th := NewThread("c", in)
	in[0].Body = "mutated"
	assert.Equal(t, "original", th.Messages[0].Body)
}

func TestThread_Validate(t *testing.T) {
	good := NewThread("c", []Message{msg(DirectionInbound, "hello", 0)})

	t.Run("invalid direction", func(t *testing.T) {
		th := good
		th.Messages = []Message{{Direction: "sideways", Body: "x"}}
		th.Trigger = th.Messages[0]
		assert.Error(t, th.Validate())
	})

	t.Run("trigger not last", func(t *testing.T) {
		th := good
		th.Messages = append(append([]Message(nil), good.Messages...), msg(DirectionInbound, "later", 5))
		assert.Error(t, th.Validate())
	})

	t.Run("outbound trigger", func(t *testing.T) {
		th := good
		th.Trigger = msg(DirectionOutbound, "hello", 0)
		assert.Error(t, th.Validate())
	})
}

func TestThread_Hash(t *testing.T) {
	a := NewThread("a", []Message{msg(DirectionInbound, "refund please", 0)})
	b := NewThread("b", []Message{msg(DirectionInbound, "  refund please  ", 9)})
	c := NewThread("a", []Message{msg(DirectionInbound, "refund now", 0)})

	assert.Equal(t, a.Hash(), b.Hash(), "hash ignores ids, timestamps and surrounding whitespace")
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Len(t, a.Hash(), 64)
}
