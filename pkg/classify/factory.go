package classify

import (
	"go.uber.org/zap"
)

// Config holds classifier provider configuration.
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "heuristic"

	// Gemini config
	GeminiAPIKey string

	// Ollama config
	OllamaBaseURL string
	OllamaModel   string
}

// NewClassifier builds the classifier chain for the configured provider.
// With Provider "heuristic" (or a gemini selection without an API key) the
// chain runs heuristics only.
func NewClassifier(cfg Config, logger *zap.Logger) Classifier {
	var model ModelClassifier

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey != "" {
			model = NewGeminiClassifier(cfg.GeminiAPIKey)
		}
	case ProviderOllama:
		model = NewOllamaClassifier(cfg.OllamaBaseURL, cfg.OllamaModel)
	case ProviderHeuristic:
		// heuristics only
	default:
		if cfg.GeminiAPIKey != "" {
			model = NewGeminiClassifier(cfg.GeminiAPIKey)
		}
	}

	return NewChain(model, NewHeuristicClassifier(), logger)
}
