// Package ocr turns uploaded images into text. Images are decoded and
// cleaned up in process, then handed to a recognition engine.
package ocr

import (
	"context"
	"errors"
)

var (
	ErrInvalidImage      = errors.New("Invalid image format")
	ErrNoText            = errors.New("No text detected")
	ErrRecognition       = errors.New("OCR failed")
	ErrLibraryNotEnabled = errors.New("gosseract support not enabled; rebuild with -tags gosseract")
)

// DefaultLanguages is the fixed multi-script Tesseract hint.
var DefaultLanguages = []string{"eng", "hin", "tel", "tam", "mal", "pan", "ben"}

// Recognition is the raw engine output. Confidence is in [0,1]; zero means
// the engine does not report one.
type Recognition struct {
	Text       string
	Confidence float64
}

// Engine recognises text in a PNG image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img []byte, languages []string) (Recognition, error)
}
