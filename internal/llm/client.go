package llm

import (
	"context"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// Client defines the interface for LLM providers.
type Client interface {
	Classify(ctx context.Context, req ClassificationRequest) (ClassificationResponse, error)
}

// ClassificationRequest is the provider-neutral input to a classification call.
type ClassificationRequest struct {
	System     string
	Prompt     string
	Categories []model.Category
}

// ClassificationResponse contains the LLM's classification result.
type ClassificationResponse struct {
	Category   string  `json:"category" jsonschema:"description=One of the allowed category labels"`
	Reasoning  string  `json:"reasoning" jsonschema:"description=One sentence explaining the label"`
	Confidence float64 `json:"confidence" jsonschema:"description=Confidence between 0 and 1"`
}
