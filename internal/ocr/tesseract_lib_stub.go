//go:build !gosseract

package ocr

import "context"

// TesseractLib is unavailable without the gosseract build tag.
type TesseractLib struct{}

// NewTesseractLib reports ErrLibraryNotEnabled; build with -tags gosseract.
func NewTesseractLib() (*TesseractLib, error) {
	return nil, ErrLibraryNotEnabled
}

func (e *TesseractLib) Name() string { return "gosseract" }

func (e *TesseractLib) Recognize(context.Context, []byte, []string) (Recognition, error) {
	return Recognition{}, ErrLibraryNotEnabled
}
