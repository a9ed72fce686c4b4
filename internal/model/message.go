// Package model defines the core domain records used throughout the triage engine.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Direction indicates whether a message came from the customer or was sent to them.
type Direction string

// Direction constants.
const (
	DirectionInbound  Direction = "in"
	DirectionOutbound Direction = "out"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Message is a single message in a support conversation. Messages are never
// mutated after they are received.
type Message struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Direction Direction `json:"direction" yaml:"direction"`
	Body      string    `json:"body" yaml:"body"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	// Author is set on outbound messages written by a human teammate. Outbound
	// messages without an author were sent by the automated agent.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

// IsInbound reports whether the message was sent by the customer.
func (m Message) IsInbound() bool {
	return m.Direction == DirectionInbound
}

// Thread is an ordered conversation plus the inbound message being decided on.
type Thread struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Messages       []Message `json:"messages" yaml:"messages"`
	// Trigger is the newest inbound message; it is always the last element of Messages.
	Trigger Message `json:"trigger" yaml:"-"`
}

// NewThread builds a thread from raw messages. Outbound messages that follow the
// last inbound message are dropped so the decision is always made relative to
// the newest customer message. The returned thread still has to pass Validate.
func NewThread(conversationID string, messages []Message) Thread {
	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsInbound() {
			last = i
			break
		}
	}

	t := Thread{ConversationID: conversationID}
	if last < 0 {
		t.Messages = append([]Message(nil), messages...)
		return t
	}

	t.Messages = append([]Message(nil), messages[:last+1]...)
	t.Trigger = t.Messages[last]
	return t
}

// Validate checks the thread invariants the decision engine relies on.
func (t Thread) Validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("thread %q has no messages", t.ConversationID)
	}
	for i, m := range t.Messages {
		if !m.Direction.IsValid() {
			return fmt.Errorf("message %d has invalid direction %q", i, m.Direction)
		}
	}
	if !t.Trigger.IsInbound() {
		return fmt.Errorf("trigger message must be inbound, got %q", t.Trigger.Direction)
	}
	lastMsg := t.Messages[len(t.Messages)-1]
	if !lastMsg.IsInbound() || lastMsg.Body != t.Trigger.Body || !lastMsg.Timestamp.Equal(t.Trigger.Timestamp) {
		return fmt.Errorf("trigger message must be the last inbound message of the thread")
	}
	return nil
}

// Hash returns a stable digest of the thread content, used as a cache key.
func (t Thread) Hash() string {
	h := sha256.New()
	for _, m := range t.Messages {
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00",
			m.Direction, strings.TrimSpace(m.Subject), m.Author, strings.TrimSpace(m.Body))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
