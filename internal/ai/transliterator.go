package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

// Transliterator asks a language model to transliterate text. It serves as
// the remote fallback when the primary engine fails.
type Transliterator struct {
	provider Provider
}

// NewTransliterator uses provider as a transliteration fallback.
func NewTransliterator(provider Provider) *Transliterator {
	return &Transliterator{provider: provider}
}

func (t *Transliterator) Name() string { return t.provider.Name() }

func (t *Transliterator) Transliterate(ctx context.Context, req translit.Request) (string, error) {
	response, err := t.provider.Generate(ctx, buildTranslitPrompt(req), nil, "")
	if err != nil {
		return "", err
	}
	return parseTranslitResponse(response)
}

func buildTranslitPrompt(req translit.Request) string {
	source := req.From
	if source == "" || strings.EqualFold(source, "autodetect") {
		source = "whatever Indic script it is written in"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Transliterate the text below from %s into the %s script.\n", source, req.To)
	b.WriteString("Transliterate, do not translate: keep the words and the pronunciation, change only the script.\n")
	b.WriteString("Leave punctuation, digits and Latin text unchanged.\n")
	if req.Nativize {
		b.WriteString("Use the spelling conventions native to the target script.\n")
	}
	b.WriteString(`Return ONLY valid JSON of the form {"translated_text": "..."} with no commentary.`)
	b.WriteString("\n\nText:\n")
	b.WriteString(req.Text)
	return b.String()
}

func parseTranslitResponse(response string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(response)), &out); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", fmt.Errorf("AI response has no translated_text")
	}
	return out.TranslatedText, nil
}
