package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TesseractCLI runs the tesseract binary, feeding the image on stdin and
// reading text from stdout.
type TesseractCLI struct {
	command string
}

// NewTesseractCLI uses "tesseract" from PATH when command is empty.
func NewTesseractCLI(command string) *TesseractCLI {
	if command == "" {
		command = "tesseract"
	}
	return &TesseractCLI{command: command}
}

func (t *TesseractCLI) Name() string { return "tesseract" }

func (t *TesseractCLI) Recognize(ctx context.Context, img []byte, languages []string) (Recognition, error) {
	args := []string{"stdin", "stdout"}
	if len(languages) > 0 {
		args = append(args, "-l", strings.Join(languages, "+"))
	}

	cmd := exec.CommandContext(ctx, t.command, args...)
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Recognition{}, fmt.Errorf("%s: %w: %s", t.command, err, strings.TrimSpace(stderr.String()))
	}
	return Recognition{Text: stdout.String()}, nil
}
