package llm

import (
	"regexp"

	"github.com/skillrecordings/support-sub010/internal/model"
)

const teammateLabel = "teammate"

type redaction struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Order matters: emails are replaced before URLs so the domain part of an
// address is never treated as a link.
var redactions = []redaction{
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "{email}"},
	{regexp.MustCompile(`\b(?:https?://)?(?:www\.)?[a-zA-Z0-9-]+\.(?:com|dev|io|net|org)/\S*`), "{url}"},
	{regexp.MustCompile(`\$\d+(?:\.\d{2})?`), "{amount}"},
	{regexp.MustCompile(`\b\d{4}[-/]\d{2}[-/]\d{2}\b`), "{date}"},
}

// Redact replaces emails, URLs, dollar amounts and ISO dates with placeholders.
func Redact(text string) string {
	for _, r := range redactions {
		text = r.pattern.ReplaceAllString(text, r.placeholder)
	}
	return text
}

// RedactThread returns a copy of thread with every subject and body redacted.
// Teammate names are replaced by a fixed label.
func RedactThread(thread model.Thread) model.Thread {
	out := model.Thread{
		ConversationID: thread.ConversationID,
		Messages:       make([]model.Message, len(thread.Messages)),
	}
	for i, m := range thread.Messages {
		out.Messages[i] = redactMessage(m)
	}
	out.Trigger = redactMessage(thread.Trigger)
	return out
}

func redactMessage(m model.Message) model.Message {
	out := model.Message{
		Timestamp: m.Timestamp,
		Direction: m.Direction,
		Subject:   Redact(m.Subject),
		Body:      Redact(m.Body),
	}
	if m.Author != "" {
		out.Author = teammateLabel
	}
	return out
}
