package testutil

import (
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// ThreadBuilder assembles a conversation one message at a time. Messages are
// a minute apart, starting at a fixed time.
//
// Example:
//
//	thread := testutil.NewThreadBuilder("cnv_1").
//		Inbound("Where is my invoice?").
//		Reply("sam", "Sent it to your inbox").
//		Inbound("Thanks!").
//		Build()
type ThreadBuilder struct {
	next           time.Time
	conversationID string
	messages       []model.Message
}

// ThreadStart is the timestamp of the first built message.
var ThreadStart = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

// NewThreadBuilder starts a thread for conversationID.
func NewThreadBuilder(conversationID string) *ThreadBuilder {
	return &ThreadBuilder{conversationID: conversationID, next: ThreadStart}
}

// Inbound adds a customer message.
func (b *ThreadBuilder) Inbound(body string) *ThreadBuilder {
	return b.add(model.Message{Direction: model.DirectionInbound, Body: body})
}

// InboundWithSubject adds a customer message with a subject line.
func (b *ThreadBuilder) InboundWithSubject(subject, body string) *ThreadBuilder {
	return b.add(model.Message{Direction: model.DirectionInbound, Subject: subject, Body: body})
}

// Reply adds an outbound message written by a teammate.
func (b *ThreadBuilder) Reply(author, body string) *ThreadBuilder {
	return b.add(model.Message{Direction: model.DirectionOutbound, Author: author, Body: body})
}

// Agent adds an outbound message sent by the automated agent.
func (b *ThreadBuilder) Agent(body string) *ThreadBuilder {
	return b.add(model.Message{Direction: model.DirectionOutbound, Body: body})
}

// Messages returns a copy of the messages added so far.
func (b *ThreadBuilder) Messages() []model.Message {
	return append([]model.Message(nil), b.messages...)
}

// Build returns the thread. It does not validate it.
func (b *ThreadBuilder) Build() model.Thread {
	return model.NewThread(b.conversationID, b.messages)
}

func (b *ThreadBuilder) add(m model.Message) *ThreadBuilder {
	m.Timestamp = b.next
	b.next = b.next.Add(time.Minute)
	b.messages = append(b.messages, m)
	return b
}
