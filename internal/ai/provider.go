// Package ai wraps the hosted language models used as a transliteration
// fallback and as a vision OCR engine.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// Provider sends a prompt, optionally with one image, and returns the model's
// text answer.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// Settings holds the credentials for every provider. Empty keys disable the
// matching provider.
type Settings struct {
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiKey     string
	GeminiModel   string
}

// NewProvider creates the named provider.
func NewProvider(ctx context.Context, name string, s Settings) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAIProvider(s.OpenAIKey, s.OpenAIBaseURL, s.OpenAIModel), nil
	case "gemini":
		if s.GeminiKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(ctx, s.GeminiKey, s.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", name)
	}
}

// cleanJSON strips markdown code fences models like to wrap JSON in.
func cleanJSON(response string) string {
	cleaned := strings.TrimSpace(response)
	backticks := string([]byte{96, 96, 96})
	cleaned = strings.ReplaceAll(cleaned, backticks+"json", "")
	cleaned = strings.ReplaceAll(cleaned, backticks, "")
	return strings.TrimSpace(cleaned)
}
