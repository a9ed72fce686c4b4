package signals

import (
	"regexp"

	"github.com/skillrecordings/support-sub010/internal/common"
)

// Curated phrase lists. Matching is case-insensitive and word-bounded; these
// lists are the whole vocabulary of the fast path, so keep them small and
// auditable.
var (
	questionPhrases = common.PhraseRegex(
		"how do i", "how can i", "how do you", "can you", "could you", "would you",
		"can i", "is there", "is it possible", "where can i", "where do i",
		"what is", "what's", "when will", "why does", "why is", "do you", "does it",
		"any way to", "wondering if",
	)

	thankYouPhrases = common.PhraseRegex(
		"thank you", "thanks", "thx", "ty", "cheers", "much appreciated", "appreciate it",
	)

	resolutionPhrases = common.PhraseRegex(
		"that worked", "it worked, thanks", "it worked, thank you", "works now", "working now",
		"all sorted", "sorted it", "figured it out", "that fixed it", "problem solved",
		"issue resolved", "all good now", "got it working", "never mind", "nevermind",
		"no longer need",
	)

	// unresolvedPattern marks a trigger that contradicts or qualifies a
	// resolution phrase, as in "still not resolved" or "it worked but".
	unresolvedPattern = regexp.MustCompile(
		`(?i)\b(?:not|still|again|but|anymore|no longer works|stopped working)\b|n['’]t\b`,
	)

	urgencyPhrases = common.PhraseRegex(
		"urgent", "urgently", "asap", "emergency", "immediately", "right away", "critical",
		"lawyer", "legal action", "chargeback", "charge back", "fraud", "fraudulent",
		"dispute", "report you", "unacceptable", "furious", "desperate",
	)

	refundPhrases = common.PhraseRegex(
		"refund", "refunded", "refunds", "money back", "reimburse", "cancel my purchase",
		"cancel my order", "cancel my subscription", "want my money",
	)

	transferPhrases = common.PhraseRegex(
		"transfer my license", "transfer my purchase", "transfer the license",
		"transfer the purchase", "transfer my account", "transfer license", "transfer it to",
		"move my purchase", "move my license", "change my email", "change the email",
		"wrong email", "different email",
	)

	billingPhrases = common.PhraseRegex(
		"invoice", "receipt", "vat", "tax id", "billing address", "billing", "charged twice",
		"double charged", "payment failed", "card was declined", "purchase order",
	)

	accessPhrases = common.PhraseRegex(
		"can't log in", "cannot log in", "can't login", "cannot login", "unable to log in",
		"log in", "login", "sign in", "magic link", "login link", "lost access", "no access",
		"can't access", "cannot access", "access the course", "password", "locked out",
	)

	technicalPhrases = common.PhraseRegex(
		"error", "bug", "not working", "doesn't work", "does not work", "broken", "crash",
		"crashes", "won't play", "will not play", "doesn't load", "not loading", "won't load",
		"blank page", "404", "exception", "stuck",
	)

	presalesPhrases = common.PhraseRegex(
		"discount", "coupon", "ppp", "purchasing power parity", "student discount", "pricing",
		"price", "how much", "before i buy", "before buying", "is it worth", "lifetime access",
		"prerequisites", "does the course cover", "is this course", "upgrade",
	)

	teamPhrases = common.PhraseRegex(
		"team license", "team licenses", "team plan", "seats", "for my team", "our team",
		"bulk purchase", "bulk license", "company license", "enterprise", "site license",
	)

	consultPhrases = common.PhraseRegex(
		"consulting", "consultation", "workshop", "speak at", "speaking engagement",
		"hire you", "contract work", "corporate training", "interview you", "podcast",
		"sponsorship",
	)

	fanPhrases = common.PhraseRegex(
		"love your", "loved your", "changed my life", "big fan", "huge fan",
		"just wanted to say", "just wanted to thank", "you're amazing", "you are amazing",
		"inspired me", "best course", "keep up the great work", "so grateful",
	)

	spamPhrases = common.PhraseRegex(
		"seo services", "guest post", "backlinks", "link building", "rank your website",
		"web design services", "crypto", "bitcoin", "investment opportunity",
		"marketing services", "increase your traffic", "lead generation", "click here",
		"limited time offer", "buy followers", "casino",
	)

	automatedPhrases = common.PhraseRegex(
		"we work normal business hours", "outside of those times", "out of office",
		"out of the office", "auto-reply", "autoreply", "automatic reply",
		"delivery status notification", "undeliverable", "mail delivery failed",
		"mailer-daemon", "do not reply", "do-not-reply", "noreply", "no-reply",
		"this is an automated",
	)

	// acknowledgementPattern matches a message made only of boilerplate
	// acknowledgements such as "ok thanks!" or "sounds good.".
	acknowledgementPattern = regexp.MustCompile(
		`(?i)^(?:(?:ok|okay|great|perfect|awesome|cool|sounds good|got it|will do|thanks|thank you|thx|cheers|many thanks|thanks so much|thank you so much)[\s!.,:)]*)+$`,
	)
)
