package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhraseRegex(t *testing.T) {
	re := PhraseRegex("refund", "money back", "  ", "log in")

	tests := []struct {
		input string
		want  bool
	}{
		{input: "Can I get a REFUND please", want: true},
		{input: "I want my money   back", want: true},
		{input: "I want my money\nback", want: true},
		{input: "cannot log in", want: true},
		{input: "refunded already", want: false},
		{input: "moneyback", want: false},
		{input: "login page", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, re.MatchString(tt.input))
		})
	}
}

func TestPhraseRegex_QuotesMeta(t *testing.T) {
	re := PhraseRegex("c++ course")
	assert.True(t, re.MatchString("the c++ course is great"))
	assert.False(t, re.MatchString("cccc course"))
}

func TestPhraseRegex_Empty(t *testing.T) {
	re := PhraseRegex()
	assert.False(t, re.MatchString("anything at all"))
	assert.False(t, re.MatchString(""))
}
