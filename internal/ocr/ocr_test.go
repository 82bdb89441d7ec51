package ocr

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bimodalPNG draws a dark square on a light background.
func bimodalPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{220, 220, 220, 255}
			if x >= w/4 && x < 3*w/4 && y >= h/4 && y < 3*h/4 {
				c = color.RGBA{30, 30, 30, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeGray(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	return img
}

func TestPreprocessOtsuBinarizes(t *testing.T) {
	p, err := NewPreprocessor(PreprocessOtsu, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Process(bimodalPNG(t, 40, 40))
	if err != nil {
		t.Fatal(err)
	}
	img := decodeGray(t, out)
	seen := map[uint8]bool{}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			seen[color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y] = true
		}
	}
	if len(seen) != 2 || !seen[0] || !seen[255] {
		t.Errorf("expected pure black and white, got levels %v", seen)
	}
	if g := color.GrayModel.Convert(img.At(20, 20)).(color.Gray).Y; g != 0 {
		t.Errorf("centre = %d, want 0", g)
	}
	if g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y; g != 255 {
		t.Errorf("corner = %d, want 255", g)
	}
}

func TestPreprocessDownscales(t *testing.T) {
	p, err := NewPreprocessor(PreprocessNone, 10)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Process(bimodalPNG(t, 40, 20))
	if err != nil {
		t.Fatal(err)
	}
	if b := decodeGray(t, out).Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Errorf("size = %dx%d, want 10x5", b.Dx(), b.Dy())
	}
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	p, _ := NewPreprocessor("", 0)
	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		if _, err := p.Process(data); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("err = %v, want ErrInvalidImage", err)
		}
	}
}

// forgedPNG is a valid PNG header claiming w x h RGBA pixels followed by a
// tiny IDAT chunk.
func forgedPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk("IHDR", ihdr)
	chunk("IDAT", []byte{0x78, 0x9c, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestPreprocessRejectsOversizedHeader(t *testing.T) {
	p, _ := NewPreprocessor("", 0)
	for _, dims := range [][2]uint32{{1 << 24, 1 << 24}, {40000, 40000}} {
		data := forgedPNG(dims[0], dims[1])
		if _, err := p.Process(data); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("%dx%d in %d bytes: err = %v, want ErrInvalidImage", dims[0], dims[1], len(data), err)
		}
	}
}

func TestNewPreprocessorUnknownMode(t *testing.T) {
	if _, err := NewPreprocessor("sepia", 0); err == nil {
		t.Fatal("expected error")
	}
}

type fakeEngine struct {
	text  string
	err   error
	langs []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, langs []string) (Recognition, error) {
	f.langs = langs
	return Recognition{Text: f.text, Confidence: 0.9}, f.err
}

type recordingMetrics struct{ statuses []string }

func (m *recordingMetrics) OCR(_ context.Context, status string, _ time.Duration) {
	m.statuses = append(m.statuses, status)
}

type memArchive struct{ n int }

func (a *memArchive) Archive(context.Context, []byte, string) (string, error) {
	a.n++
	return "ocr/test.png", nil
}

func newService(t *testing.T, eng Engine, opts ...Option) *Service {
	t.Helper()
	p, err := NewPreprocessor(PreprocessOtsu, 0)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(p, eng, quietLogger(), opts...)
}

func TestServiceTrimsText(t *testing.T) {
	m := &recordingMetrics{}
	arch := &memArchive{}
	eng := &fakeEngine{text: "\n  नमस्ते  \n\n"}
	svc := newService(t, eng, WithMetrics(m), WithArchiver(arch))

	out := svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "")
	if out.Err != nil {
		t.Fatal(out.Err)
	}
	if out.Text != "नमस्ते" || out.Confidence != 0.9 || out.Translit != nil {
		t.Errorf("outcome = %+v", out)
	}
	if out.ArchiveKey != "ocr/test.png" || arch.n != 1 {
		t.Errorf("archive key = %q, calls = %d", out.ArchiveKey, arch.n)
	}
	if strings.Join(eng.langs, "+") != "eng+hin+tel+tam+mal+pan+ben" {
		t.Errorf("languages = %v", eng.langs)
	}
	if len(m.statuses) != 1 || m.statuses[0] != "ok" {
		t.Errorf("metrics = %v", m.statuses)
	}
}

func TestServiceWhitespaceIsNoText(t *testing.T) {
	svc := newService(t, &fakeEngine{text: " \n\t "})
	out := svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "Telugu")
	if !errors.Is(out.Err, ErrNoText) || out.Err.Error() != "No text detected" {
		t.Errorf("err = %v", out.Err)
	}
}

func TestServiceInvalidImageSkipsEngine(t *testing.T) {
	eng := &fakeEngine{text: "x"}
	arch := &memArchive{}
	svc := newService(t, eng, WithArchiver(arch))
	out := svc.Recognize(context.Background(), []byte("nope"), "image/png", "")
	if out.Err == nil || out.Err.Error() != "Invalid image format" {
		t.Errorf("err = %v", out.Err)
	}
	if eng.langs != nil || arch.n != 0 {
		t.Error("engine or archive called for invalid image")
	}
}

func TestServiceEngineFailure(t *testing.T) {
	svc := newService(t, &fakeEngine{err: errors.New("tesseract missing")})
	out := svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "")
	if !errors.Is(out.Err, ErrRecognition) {
		t.Errorf("err = %v", out.Err)
	}
}

func TestServiceChainsTransliteration(t *testing.T) {
	tr, err := translit.NewService(translit.NewBrahmicEngine(), script.NewRangeResolver(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	svc := newService(t, &fakeEngine{text: "धर्म"}, WithTransliterator(tr))

	out := svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "Telugu")
	if out.Err != nil || out.Translit == nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Translit.Text != "ధర్మ" || out.Translit.From != "Devanagari" {
		t.Errorf("translit = %+v", out.Translit)
	}

	out = svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "Klingon")
	if out.Err != nil || out.Text != "धर्म" {
		t.Fatalf("chain failure lost text: %+v", out)
	}
	if out.Translit == nil || !errors.Is(out.Translit.Err, translit.ErrUnsupportedScript) {
		t.Errorf("translit = %+v", out.Translit)
	}
}

type slowTranslit struct {
	*translit.BrahmicEngine
	delay time.Duration
}

func (s slowTranslit) Transliterate(ctx context.Context, req translit.Request) (translit.Result, error) {
	time.Sleep(s.delay)
	return s.BrahmicEngine.Transliterate(ctx, req)
}

func TestServiceTimesChainedTransliteration(t *testing.T) {
	engine := slowTranslit{BrahmicEngine: translit.NewBrahmicEngine(), delay: 20 * time.Millisecond}
	tr, err := translit.NewService(engine, script.NewRangeResolver(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	svc := newService(t, &fakeEngine{text: "धर्म"}, WithTransliterator(tr))

	out := svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "Telugu")
	if out.Translit == nil || out.Translit.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.TranslitElapsed < 20*time.Millisecond {
		t.Errorf("TranslitElapsed = %v, want >= 20ms", out.TranslitElapsed)
	}

	out = svc.Recognize(context.Background(), bimodalPNG(t, 8, 8), "image/png", "")
	if out.TranslitElapsed != 0 {
		t.Errorf("TranslitElapsed = %v without a chain", out.TranslitElapsed)
	}
}

func TestTesseractCLIArgs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "fake-tesseract")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\ncat >/dev/null\necho \"$@\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec, err := NewTesseractCLI(bin).Recognize(context.Background(), []byte("img"), []string{"eng", "hin"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(rec.Text); got != "stdin stdout -l eng+hin" {
		t.Errorf("args = %q", got)
	}
}

func TestTesseractCLIMissingBinary(t *testing.T) {
	_, err := NewTesseractCLI(filepath.Join(t.TempDir(), "missing")).Recognize(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
}
