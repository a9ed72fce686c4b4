package model

// ClassificationSource indicates which path produced a classification.
type ClassificationSource string

// Classification source constants.
const (
	SourceFastPath ClassificationSource = "fast_path"
	SourceFallback ClassificationSource = "fallback"
)

// Classification is the result of categorising a thread.
type Classification struct {
	Category   Category             `json:"category"`
	Source     ClassificationSource `json:"source"`
	Reasoning  string               `json:"reasoning"`
	Rule       string               `json:"rule,omitempty"`
	Signals    ThreadSignals        `json:"signals"`
	Confidence float64              `json:"confidence"`
}

// FallbackResult is the opaque triple returned by the external classifier.
type FallbackResult struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// ClampConfidence bounds a confidence value to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
