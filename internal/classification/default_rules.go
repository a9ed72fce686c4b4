package classification

import "github.com/skillrecordings/support-sub010/internal/model"

// Rule names.
const (
	RuleAutomated       = "automated"
	RuleSpam            = "spam"
	RuleResolved        = "resolved"
	RuleAcknowledged    = "acknowledged"
	RuleRefund          = "refund"
	RuleTransfer        = "transfer"
	RuleBilling         = "billing"
	RuleAccess          = "access"
	RuleTechnical       = "technical"
	RulePresalesTeam    = "presales_team"
	RulePresalesConsult = "presales_consult"
	RulePresalesFAQ     = "presales_faq"
	RuleFanMail         = "fan_mail"
)

// minThankYouWords is the shortest first-contact thank-you treated as fan
// mail; shorter ones are usually a reply to something we cannot see.
const minThankYouWords = 8

// DefaultRules returns the fast-path decision table. Order matters: categories
// overlap, so money-moving intents are checked before anything that a thank-you
// or compliment could also satisfy.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       RuleAutomated,
			Category:   model.CategorySystem,
			Confidence: 0.95,
			Reasoning:  "autoresponder or delivery notice",
			When: func(s model.ThreadSignals) bool {
				return s.LooksAutomated
			},
		},
		{
			Name:       RuleSpam,
			Category:   model.CategorySpam,
			Confidence: 0.90,
			Reasoning:  "unsolicited marketing in a thread nobody answered",
			When: func(s model.ThreadSignals) bool {
				return s.LooksLikeSpam && !s.Bidirectional && !s.HasRefundIntent && !s.HasAccessIssue
			},
		},
		{
			Name:       RuleResolved,
			Category:   model.CategoryResolved,
			Confidence: 0.90,
			Reasoning:  "customer confirmed the issue is resolved",
			When: func(s model.ThreadSignals) bool {
				return s.Bidirectional && s.ThreadLength > 1 && s.HasResolutionPhrase &&
					!s.HasQuestion && !hasOpenIssue(s)
			},
		},
		{
			Name:       RuleAcknowledged,
			Category:   model.CategoryResolved,
			Confidence: 0.85,
			Reasoning:  "customer acknowledged a reply with no further request",
			When: func(s model.ThreadSignals) bool {
				return s.Bidirectional && s.ThreadLength > 1 && s.IsAcknowledgement
			},
		},
		{
			Name:       RuleRefund,
			Category:   model.CategorySupportRefund,
			Confidence: 0.90,
			Reasoning:  "refund requested",
			When: func(s model.ThreadSignals) bool {
				return s.HasRefundIntent
			},
		},
		{
			Name:       RuleTransfer,
			Category:   model.CategorySupportTransfer,
			Confidence: 0.85,
			Reasoning:  "license or purchase transfer requested",
			When: func(s model.ThreadSignals) bool {
				return s.HasTransferIntent
			},
		},
		{
			Name:       RuleBilling,
			Category:   model.CategorySupportBilling,
			Confidence: 0.85,
			Reasoning:  "invoice, receipt or charge question",
			When: func(s model.ThreadSignals) bool {
				return s.HasBillingIntent
			},
		},
		{
			Name:       RuleAccess,
			Category:   model.CategorySupportAccess,
			Confidence: 0.85,
			Reasoning:  "customer cannot access their purchase",
			When: func(s model.ThreadSignals) bool {
				return s.HasAccessIssue
			},
		},
		{
			Name:       RuleTechnical,
			Category:   model.CategorySupportTechnical,
			Confidence: 0.80,
			Reasoning:  "technical problem reported",
			When: func(s model.ThreadSignals) bool {
				return s.HasTechnicalIssue
			},
		},
		{
			Name:       RulePresalesTeam,
			Category:   model.CategoryPresalesTeam,
			Confidence: 0.80,
			Reasoning:  "team or bulk license inquiry",
			When: func(s model.ThreadSignals) bool {
				return s.HasTeamInquiry && !s.Bidirectional
			},
		},
		{
			Name:       RulePresalesConsult,
			Category:   model.CategoryPresalesConsult,
			Confidence: 0.80,
			Reasoning:  "consulting, workshop or speaking inquiry",
			When: func(s model.ThreadSignals) bool {
				return s.HasConsultInquiry && !s.Bidirectional
			},
		},
		{
			Name:       RulePresalesFAQ,
			Category:   model.CategoryPresalesFAQ,
			Confidence: 0.75,
			Reasoning:  "pre-purchase question",
			When: func(s model.ThreadSignals) bool {
				return s.HasPresalesQuestion && s.HasQuestion
			},
		},
		{
			Name:       RuleFanMail,
			Category:   model.CategoryFanMail,
			Confidence: 0.80,
			Reasoning:  "appreciation with no request",
			When: func(s model.ThreadSignals) bool {
				if s.HasQuestion || s.Bidirectional {
					return false
				}
				return s.HasFanMail ||
					(s.HasThankYou && s.TriggerWordCount >= minThankYouWords && !hasOpenIssue(s))
			},
		},
	}
}

// hasOpenIssue reports whether the trigger still names a problem or a
// money-moving request, which a resolution phrase must not silence.
func hasOpenIssue(s model.ThreadSignals) bool {
	return s.HasRefundIntent || s.HasTransferIntent || s.HasBillingIntent ||
		s.HasAccessIssue || s.HasTechnicalIssue || s.HasUrgency
}
