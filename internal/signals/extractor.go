// Package signals derives the fixed set of thread signals the fast path and
// router decide on.
package signals

import (
	"strings"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// Compute derives the signals of a thread. It is total and deterministic: the
// same thread always yields the same signals, and an empty or whitespace-only
// trigger simply produces no intent flags.
func Compute(thread model.Thread) model.ThreadSignals {
	s := model.ThreadSignals{
		ThreadLength: len(thread.Messages),
	}

	for _, m := range thread.Messages {
		switch m.Direction {
		case model.DirectionInbound:
			s.InboundCount++
		case model.DirectionOutbound:
			s.OutboundCount++
			if strings.TrimSpace(m.Author) != "" {
				s.TeammateEngaged = true
			}
		}
	}
	s.Bidirectional = s.InboundCount > 0 && s.OutboundCount > 0

	trigger := thread.Trigger
	text := Normalize(trigger.Body)
	subject := Normalize(trigger.Subject)
	s.TriggerText = text
	s.Subject = subject
	s.TriggerWordCount = len(strings.Fields(text))

	if text == "" {
		return s
	}

	// Intent phrases may appear in the subject line of the trigger as well.
	content := text
	if subject != "" {
		content = subject + "\n" + text
	}

	s.HasQuestion = strings.Contains(text, "?") || questionPhrases.MatchString(text)
	s.HasThankYou = thankYouPhrases.MatchString(text)
	s.HasResolutionPhrase = resolutionPhrases.MatchString(text) && !unresolvedPattern.MatchString(text)
	s.IsAcknowledgement = acknowledgementPattern.MatchString(text)
	s.HasUrgency = urgencyPhrases.MatchString(content)
	s.HasRefundIntent = refundPhrases.MatchString(content)
	s.HasTransferIntent = transferPhrases.MatchString(content)
	s.HasBillingIntent = billingPhrases.MatchString(content)
	s.HasAccessIssue = accessPhrases.MatchString(content)
	s.HasTechnicalIssue = technicalPhrases.MatchString(content)
	s.HasPresalesQuestion = presalesPhrases.MatchString(content)
	s.HasTeamInquiry = teamPhrases.MatchString(content)
	s.HasConsultInquiry = consultPhrases.MatchString(content)
	s.HasFanMail = fanPhrases.MatchString(text)
	s.LooksLikeSpam = spamPhrases.MatchString(content)
	s.LooksAutomated = automatedPhrases.MatchString(content) ||
		automatedPhrases.MatchString(strings.ToLower(trigger.Author))

	return s
}

// Normalize lowercases text and collapses every run of whitespace to a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
