package llm

import (
	"fmt"
	"strings"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// maxPromptMessages bounds how much history is sent; the newest messages win.
const maxPromptMessages = 12

var categoryDescriptions = map[model.Category]string{
	model.CategorySupportAccess:    "cannot log in, lost access, magic link or license seat problems",
	model.CategorySupportRefund:    "asks for money back or to cancel a purchase",
	model.CategorySupportTransfer:  "wants a license or purchase moved to another email or account",
	model.CategorySupportTechnical: "bug reports, broken videos, code or setup questions about the product",
	model.CategorySupportBilling:   "invoices, receipts, VAT, tax or payment method questions",
	model.CategoryPresalesFAQ:      "simple questions before buying: pricing, discounts, what is included",
	model.CategoryPresalesConsult:  "wants advice on whether the product fits their situation",
	model.CategoryPresalesTeam:     "team, enterprise or bulk license enquiries",
	model.CategoryFanMail:          "personal thanks or praise addressed to the instructor",
	model.CategorySpam:             "unsolicited marketing, link exchanges, partnership pitches",
	model.CategorySystem:           "automated notifications, bounces, out-of-office replies",
	model.CategoryResolved:         "the customer confirms the issue is solved and needs nothing else",
	model.CategoryUnknown:          "none of the above fits or the intent is unclear",
}

const systemPromptHeader = `You classify customer support conversations for an online course business.
Read the conversation and choose exactly one category for the newest customer message.

Categories:
`

const systemPromptFooter = `
Respond only with a JSON object: {"category": "<label>", "reasoning": "<one sentence>", "confidence": <0.0-1.0>}.
Personal details have been replaced by placeholders such as {email}, {url}, {amount} and {date}.`

// buildSystemPrompt lists the allowed labels with a short description each.
func buildSystemPrompt(categories []model.Category) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, categoryDescriptions[c])
	}
	b.WriteString(systemPromptFooter)
	return b.String()
}

// buildPrompt renders a redacted thread as a plain transcript.
func buildPrompt(thread model.Thread) string {
	messages := thread.Messages
	if len(messages) > maxPromptMessages {
		messages = messages[len(messages)-maxPromptMessages:]
	}

	var b strings.Builder
	for i, m := range messages {
		fmt.Fprintf(&b, "[%d] %s", i+1, speaker(m))
		if subject := strings.TrimSpace(m.Subject); subject != "" {
			fmt.Fprintf(&b, " (subject: %s)", subject)
		}
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(m.Body))
		b.WriteString("\n\n")
	}
	b.WriteString("Classify the newest customer message.")
	return b.String()
}

func speaker(m model.Message) string {
	switch {
	case m.IsInbound():
		return "customer"
	case m.Author != "":
		return "teammate"
	default:
		return "agent"
	}
}
