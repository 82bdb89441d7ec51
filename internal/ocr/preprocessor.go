package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Preprocessing modes.
const (
	PreprocessNone      = "none"
	PreprocessGrayscale = "grayscale"
	PreprocessOtsu      = "otsu"
)

const defaultMaxDimension = 2000

// maxSourcePixels bounds the decoded size of an upload. Image headers are
// checked against it before any pixel data is allocated.
const maxSourcePixels = 64 << 20

// Preprocessor decodes uploaded images and prepares them for recognition.
// Output is always PNG.
type Preprocessor struct {
	mode   string
	maxDim int
}

// NewPreprocessor validates the mode. maxDim <= 0 selects the default of
// 2000 pixels on the longest side.
func NewPreprocessor(mode string, maxDim int) (*Preprocessor, error) {
	switch mode {
	case "":
		mode = PreprocessOtsu
	case PreprocessNone, PreprocessGrayscale, PreprocessOtsu:
	default:
		return nil, fmt.Errorf("unknown preprocess mode %q", mode)
	}
	if maxDim <= 0 {
		maxDim = defaultMaxDimension
	}
	return &Preprocessor{mode: mode, maxDim: maxDim}, nil
}

func (p *Preprocessor) Mode() string { return p.mode }

// Process decodes data and applies the configured pipeline:
// resize (if too large) -> grayscale -> threshold.
func (p *Preprocessor) Process(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, maxSourcePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: zero-sized image", ErrInvalidImage)
	}

	img = downscale(img, p.maxDim)

	switch p.mode {
	case PreprocessGrayscale:
		img = grayscale(img)
	case PreprocessOtsu:
		g := grayscale(img)
		binarize(g, otsuThreshold(g))
		img = g
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}
	nw := max(1, w*maxDim/longest)
	nh := max(1, h*maxDim/longest)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// otsuThreshold picks the gray level that maximises the between-class
// variance of the histogram.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	total := b.Dx() * b.Dy()
	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, best float64
	var wB int
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

func binarize(g *image.Gray, threshold uint8) {
	for i, v := range g.Pix {
		if v > threshold {
			g.Pix[i] = 0xFF
		} else {
			g.Pix[i] = 0
		}
	}
}
