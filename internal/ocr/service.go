package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

// Archiver stores a copy of an uploaded image and returns its object key.
type Archiver interface {
	Archive(ctx context.Context, data []byte, contentType string) (string, error)
}

// Metrics receives one observation per OCR request.
type Metrics interface {
	OCR(ctx context.Context, status string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) OCR(context.Context, string, time.Duration) {}

// Outcome is the result of one OCR request. Err is set when no text could be
// produced. When a transliteration was requested Translit carries its own
// outcome, which may fail independently of the recognised text.
type Outcome struct {
	Text       string
	Confidence float64
	Engine     string
	ArchiveKey string
	Translit   *translit.Outcome
	// TranslitElapsed is the time spent in the chained transliteration.
	TranslitElapsed time.Duration
	Err             error
}

// Service runs decode -> preprocess -> recognise -> optional transliteration.
type Service struct {
	pre       *Preprocessor
	engine    Engine
	languages []string
	translit  *translit.Service
	archive   Archiver
	metrics   Metrics
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLanguages overrides the Tesseract language list.
func WithLanguages(langs []string) Option {
	return func(s *Service) {
		if len(langs) > 0 {
			s.languages = langs
		}
	}
}

// WithTransliterator enables chaining recognised text into transliteration.
func WithTransliterator(t *translit.Service) Option {
	return func(s *Service) { s.translit = t }
}

// WithArchiver stores a copy of every decodable upload.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithMetrics records one observation per request. A nil value is ignored.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService builds an OCR pipeline around engine. Languages default to
// DefaultLanguages.
func NewService(pre *Preprocessor, engine Engine, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		pre:       pre,
		engine:    engine,
		languages: DefaultLanguages,
		metrics:   nopMetrics{},
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EngineName reports the recognition engine.
func (s *Service) EngineName() string { return s.engine.Name() }

// Recognize extracts text from data. With a non-empty toScript the text is
// transliterated; a failed transliteration keeps the recognised text.
func (s *Service) Recognize(ctx context.Context, data []byte, contentType, toScript string) Outcome {
	start := time.Now()
	out := Outcome{Engine: s.engine.Name()}

	img, err := s.pre.Process(data)
	if err != nil {
		s.finish(ctx, start, "invalid_image")
		s.log.Warn("ocr rejected image", slog.Int("bytes", len(data)), slog.String("error", err.Error()))
		out.Err = ErrInvalidImage
		return out
	}

	if s.archive != nil {
		key, err := s.archive.Archive(ctx, data, contentType)
		if err != nil {
			s.log.Error("archive upload failed", slog.String("error", err.Error()))
		} else {
			out.ArchiveKey = key
		}
	}

	rec, err := s.engine.Recognize(ctx, img, s.languages)
	if err != nil {
		s.finish(ctx, start, "error")
		s.log.Error("ocr engine failed", slog.String("engine", s.engine.Name()), slog.String("error", err.Error()))
		out.Err = fmt.Errorf("%w: %v", ErrRecognition, err)
		return out
	}

	text := strings.TrimSpace(rec.Text)
	if text == "" {
		s.finish(ctx, start, "no_text")
		s.log.Info("ocr found no text", slog.String("engine", s.engine.Name()))
		out.Err = ErrNoText
		return out
	}
	out.Text = text
	out.Confidence = rec.Confidence
	s.finish(ctx, start, "ok")
	s.log.Info("ocr request",
		slog.String("engine", s.engine.Name()),
		slog.Int("chars", len([]rune(text))),
		slog.Duration("elapsed", time.Since(start)),
	)

	if toScript == "" {
		return out
	}
	if s.translit == nil {
		out.Translit = &translit.Outcome{
			Original: text,
			To:       toScript,
			Err:      errors.New("transliteration is not configured"),
		}
		return out
	}
	chainStart := time.Now()
	t := s.translit.Transliterate(ctx, translit.Request{
		Text:     text,
		From:     script.Autodetect,
		To:       toScript,
		Nativize: true,
	})
	out.TranslitElapsed = time.Since(chainStart)
	out.Translit = &t
	return out
}

func (s *Service) finish(ctx context.Context, start time.Time, status string) {
	s.metrics.OCR(ctx, status, time.Since(start))
}
