package classify

import "context"

// Metadata carries the message context available at classification time.
// Headers holds the classification-relevant subset (List-Unsubscribe,
// Precedence, Auto-Submitted); it may be empty for providers that do not
// expose raw headers.
type Metadata struct {
	Subject string
	Headers map[string]string
}

// Classifier decides whether an address belongs to a human correspondent
// or an automated sender (bot, listserv, newsletter). Implementations must
// never fail: classification degrades, it does not error.
type Classifier interface {
	Classify(ctx context.Context, email, displayName string, meta *Metadata) bool
}

// ModelClassifier is the fallible model-backed step of the chain. A true
// result means "automated".
type ModelClassifier interface {
	ClassifyAutomated(ctx context.Context, email, displayName string, meta *Metadata) (bool, error)
}

// ProviderType selects the model backend.
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderOllama    ProviderType = "ollama"
	ProviderHeuristic ProviderType = "heuristic"
)
