package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "leading prose", input: "Here you go:\n{\"a\":1}\nThanks", want: `{"a":1}`},
		{name: "whitespace", input: "  \n{\"a\":1}  \n", want: `{"a":1}`},
		{name: "no object", input: "nothing here", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.input))
		})
	}
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		want       ClassificationResponse
		errContain string
	}{
		{
			name:    "valid",
			content: `{"category":"fan_mail","reasoning":" says thanks ","confidence":0.9}`,
			want:    ClassificationResponse{Category: "fan_mail", Reasoning: "says thanks", Confidence: 0.9},
		},
		{
			name:    "normalizes category case",
			content: `{"category":" SPAM ","reasoning":"pitch","confidence":0.4}`,
			want:    ClassificationResponse{Category: "spam", Reasoning: "pitch", Confidence: 0.4},
		},
		{
			name:    "unknown label is passed through",
			content: `{"category":"billing_question","reasoning":"r","confidence":0.5}`,
			want:    ClassificationResponse{Category: "billing_question", Reasoning: "r", Confidence: 0.5},
		},
		{
			name:       "missing category",
			content:    `{"reasoning":"r","confidence":0.5}`,
			errContain: "no category",
		},
		{
			name:       "not JSON",
			content:    "support_access 0.9",
			errContain: "failed to parse JSON",
		},
		{
			name:       "empty",
			content:    "   ",
			errContain: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.content)
			if tt.errContain != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
