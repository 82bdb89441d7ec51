package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/scriptbridge/scriptbridge-api/internal/ai"
)

const visionPrompt = `Read all text in this image exactly as written.
Keep the original script; do not translate or transliterate.
Preserve line breaks. Return ONLY the text with no commentary.
If the image contains no text, return an empty response.`

// VisionEngine recognises text with a multimodal AI model.
type VisionEngine struct {
	provider ai.Provider
}

// NewVisionEngine recognises text with a multimodal model.
func NewVisionEngine(provider ai.Provider) *VisionEngine {
	return &VisionEngine{provider: provider}
}

func (v *VisionEngine) Name() string { return "vision:" + v.provider.Name() }

func (v *VisionEngine) Recognize(ctx context.Context, img []byte, languages []string) (Recognition, error) {
	prompt := visionPrompt
	if len(languages) > 0 {
		prompt += "\nExpected languages (Tesseract codes): " + strings.Join(languages, ", ")
	}
	text, err := v.provider.Generate(ctx, prompt, img, "image/png")
	if err != nil {
		return Recognition{}, fmt.Errorf("vision model: %w", err)
	}
	return Recognition{Text: text}, nil
}
