package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// cleanMarkdownWrapper strips a ```json fence and any prose around the first
// JSON object in content.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```JSON")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// parseClassification extracts category, reasoning and confidence from an LLM
// response body.
func parseClassification(content string) (ClassificationResponse, error) {
	var resp ClassificationResponse

	content = cleanMarkdownWrapper(content)
	if content == "" {
		return ClassificationResponse{}, fmt.Errorf("empty response")
	}

	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return ClassificationResponse{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	resp.Category = strings.ToLower(strings.TrimSpace(resp.Category))
	if resp.Category == "" {
		return ClassificationResponse{}, fmt.Errorf("no category found in response")
	}
	resp.Reasoning = strings.TrimSpace(resp.Reasoning)

	return resp, nil
}
