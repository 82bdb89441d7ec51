//go:build gosseract

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractLib runs Tesseract in process through gosseract. It requires cgo
// and the libtesseract headers, so it is only built with -tags gosseract.
type TesseractLib struct{}

// NewTesseractLib creates the in-process gosseract engine.
func NewTesseractLib() (*TesseractLib, error) {
	return &TesseractLib{}, nil
}

func (e *TesseractLib) Name() string { return "gosseract" }

func (e *TesseractLib) Recognize(ctx context.Context, img []byte, languages []string) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}

	c := gosseract.NewClient()
	defer c.Close()

	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return Recognition{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return Recognition{}, fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize text: %w", err)
	}
	return Recognition{Text: text, Confidence: wordConfidence(c)}, nil
}

func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
