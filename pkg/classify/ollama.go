package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaClassifier implements ModelClassifier against a local Ollama server.
type OllamaClassifier struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClassifier(baseURL, model string) *OllamaClassifier {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaClassifier{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
	}
}

// ClassifyAutomated issues a single classification request and expects a
// boolean-literal answer. Anything else is a parse failure, which the chain
// turns into a heuristic fallback.
func (o *OllamaClassifier) ClassifyAutomated(ctx context.Context, email, displayName string, meta *Metadata) (bool, error) {
	url := o.baseURL + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.model,
		"prompt": buildPrompt(email, displayName, meta),
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.0,
			"num_predict": 5,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}

	return parseBooleanAnswer(result.Response)
}

func buildPrompt(email, displayName string, meta *Metadata) string {
	var b strings.Builder
	b.WriteString("You classify email senders. Answer with exactly one word, true or false.\n")
	b.WriteString("Question: is this sender an automated system (bot, mailing list, newsletter, notification service) rather than a human?\n\n")
	fmt.Fprintf(&b, "Address: %s\n", email)
	if displayName != "" {
		fmt.Fprintf(&b, "Display name: %s\n", displayName)
	}
	if meta != nil {
		if meta.Subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", meta.Subject)
		}
		for key, value := range meta.Headers {
			fmt.Fprintf(&b, "Header %s: %s\n", key, value)
		}
	}
	b.WriteString("\nAnswer:")
	return b.String()
}

func parseBooleanAnswer(raw string) (bool, error) {
	answer := strings.ToLower(strings.TrimSpace(raw))
	answer = strings.Trim(answer, ".\"'`")
	switch answer {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("model returned a non-boolean answer: %q", raw)
}
