package classification

import "shelfward/internal/media"

// Source identifies which tier produced a classification.
type Source string

const (
	SourceAI       Source = "ai"
	SourceExternal Source = "external_api"
	SourceRule     Source = "rule_based"
)

// Result is one tier's verdict for a single media file.
type Result struct {
	Category   media.Category `json:"category"`
	Confidence float64        `json:"confidence"`
	Source     Source         `json:"source"`
	Reasoning  string         `json:"reasoning,omitempty"`
}
