package signals

import (
	"testing"
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func inbound(body string) model.Message {
	return model.Message{Direction: model.DirectionInbound, Body: body, Timestamp: baseTime}
}

func outbound(body, author string) model.Message {
	return model.Message{Direction: model.DirectionOutbound, Body: body, Author: author, Timestamp: baseTime}
}

func thread(msgs ...model.Message) model.Thread {
	for i := range msgs {
		msgs[i].Timestamp = baseTime.Add(time.Duration(i) * time.Minute)
	}
	return model.NewThread("cnv_1", msgs)
}

func TestCompute_Counts(t *testing.T) {
	th := thread(
		inbound("Hi, I can't log in to the course"),
		outbound("Here is a fresh magic link", "alex"),
		inbound("That worked, thanks!"),
		outbound("automated follow up", ""),
	)

	s := Compute(th)

	assert.Equal(t, 3, s.ThreadLength, "trailing outbound message is stripped")
	assert.Equal(t, 2, s.InboundCount)
	assert.Equal(t, 1, s.OutboundCount)
	assert.True(t, s.Bidirectional)
	assert.True(t, s.TeammateEngaged)
	assert.True(t, s.HasResolutionPhrase)
	assert.True(t, s.HasThankYou)
	assert.False(t, s.HasAccessIssue, "intent comes from the trigger message only")
	assert.Equal(t, "that worked, thanks!", s.TriggerText)
	assert.Equal(t, 3, s.TriggerWordCount)
}

func TestCompute_Flags(t *testing.T) {
	tests := []struct {
		check func(model.ThreadSignals) bool
		name  string
		body  string
		want  bool
	}{
		{name: "question mark", body: "is the course still on sale?", check: func(s model.ThreadSignals) bool { return s.HasQuestion }, want: true},
		{name: "question prompt without mark", body: "how do I download the videos", check: func(s model.ThreadSignals) bool { return s.HasQuestion }, want: true},
		{name: "statement is not a question", body: "I bought the course yesterday.", check: func(s model.ThreadSignals) bool { return s.HasQuestion }, want: false},
		{name: "refund intent", body: "Please REFUND my order", check: func(s model.ThreadSignals) bool { return s.HasRefundIntent }, want: true},
		{name: "refund inside word does not match", body: "refundable status unclear", check: func(s model.ThreadSignals) bool { return s.HasRefundIntent }, want: false},
		{name: "transfer intent", body: "can you transfer my license to my work address", check: func(s model.ThreadSignals) bool { return s.HasTransferIntent }, want: true},
		{name: "billing intent", body: "I need an invoice with our VAT number", check: func(s model.ThreadSignals) bool { return s.HasBillingIntent }, want: true},
		{name: "access issue", body: "I cannot   log in anymore", check: func(s model.ThreadSignals) bool { return s.HasAccessIssue }, want: true},
		{name: "technical issue", body: "the video won't play in firefox", check: func(s model.ThreadSignals) bool { return s.HasTechnicalIssue }, want: true},
		{name: "urgency", body: "this is URGENT, my card was charged", check: func(s model.ThreadSignals) bool { return s.HasUrgency }, want: true},
		{name: "fan mail", body: "Just wanted to say your course changed my life", check: func(s model.ThreadSignals) bool { return s.HasFanMail }, want: true},
		{name: "spam", body: "We offer SEO services to rank your website", check: func(s model.ThreadSignals) bool { return s.LooksLikeSpam }, want: true},
		{name: "autoresponder", body: "Hi! We work normal business hours and will reply soon", check: func(s model.ThreadSignals) bool { return s.LooksAutomated }, want: true},
		{name: "resolution", body: "That worked, all good now.", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: true},
		{name: "never mind is a resolution", body: "never mind, I figured it out", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: true},
		{name: "negated resolution", body: "This is still not resolved.", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: false},
		{name: "qualified resolution", body: "That worked yesterday but it is broken again", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: false},
		{name: "curly contraction negates resolution", body: "that worked once but it doesn’t now", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: false},
		{name: "contraction negates resolution", body: "the fix that worked for others didn't help me", check: func(s model.ThreadSignals) bool { return s.HasResolutionPhrase }, want: false},
		{name: "acknowledgement", body: "ok thanks!", check: func(s model.ThreadSignals) bool { return s.IsAcknowledgement }, want: true},
		{name: "acknowledgement with content", body: "ok thanks, but the video is still broken", check: func(s model.ThreadSignals) bool { return s.IsAcknowledgement }, want: false},
		{name: "team inquiry", body: "do you sell team licenses for 12 seats", check: func(s model.ThreadSignals) bool { return s.HasTeamInquiry }, want: true},
		{name: "consult inquiry", body: "we would love to hire you for a workshop", check: func(s model.ThreadSignals) bool { return s.HasConsultInquiry }, want: true},
		{name: "presales", body: "do you offer a student discount", check: func(s model.ThreadSignals) bool { return s.HasPresalesQuestion }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(thread(inbound(tt.body)))
			assert.Equal(t, tt.want, tt.check(s))
		})
	}
}

func TestCompute_SubjectCarriesIntent(t *testing.T) {
	msg := inbound("see above")
	msg.Subject = "Refund request"
	s := Compute(thread(msg))
	assert.True(t, s.HasRefundIntent)
	assert.Equal(t, "refund request", s.Subject)
}

func TestCompute_AutomatedAuthor(t *testing.T) {
	msg := inbound("Your message could not be delivered")
	msg.Author = "MAILER-DAEMON@example.com"
	assert.True(t, Compute(thread(msg)).LooksAutomated)
}

func TestCompute_WhitespaceTrigger(t *testing.T) {
	s := Compute(thread(inbound("   \n\t ")))
	assert.Equal(t, 1, s.ThreadLength)
	assert.Equal(t, "", s.TriggerText)
	assert.Zero(t, s.TriggerWordCount)
	assert.False(t, s.HasQuestion)
	assert.False(t, s.IsAcknowledgement)
}

func TestCompute_Idempotent(t *testing.T) {
	th := thread(
		inbound("I want a refund, this is urgent!"),
		outbound("Sorry to hear that", "sam"),
		inbound("Still waiting... can you help?"),
	)

	first := Compute(th)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Compute(th))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello there world", Normalize("  Hello\n\tTHERE   world "))
	assert.Equal(t, "", Normalize(" \n "))
}
