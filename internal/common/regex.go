package common

import (
	"regexp"
	"strings"
)

// PhraseRegex compiles a case-insensitive alternation of literal phrases. Each
// phrase must start and end on a word boundary; whitespace inside a phrase
// matches any run of whitespace.
func PhraseRegex(phrases ...string) *regexp.Regexp {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		words := strings.Fields(p)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		parts = append(parts, strings.Join(words, `\s+`))
	}
	if len(parts) == 0 {
		// Matches nothing.
		return regexp.MustCompile(`[^\s\S]`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}
