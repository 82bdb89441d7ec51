package translit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
)

// Failure policies. A deployment picks exactly one.
const (
	PolicyError    = "error"
	PolicyOriginal = "original"
)

// Metrics receives one observation per engine and fallback call.
type Metrics interface {
	Transliteration(ctx context.Context, engine, status string)
	Fallback(ctx context.Context, provider, status string)
}

type nopMetrics struct{}

func (nopMetrics) Transliteration(context.Context, string, string) {}
func (nopMetrics) Fallback(context.Context, string, string)        {}

// Outcome is the single result shape of a transliteration call. Err is nil on
// success; on failure Text is empty unless the original-text policy filled it
// in, in which case Degraded is set and Err is nil.
type Outcome struct {
	Original string
	Text     string
	From     string
	To       string
	Engine   string
	Fallback bool
	Degraded bool
	Err      error
}

// Service validates requests, resolves the source script and runs the engine
// with its fallback. It holds only immutable configuration.
type Service struct {
	engine   Engine
	resolver script.Resolver
	fallback Fallback
	policy   string
	metrics  Metrics
	log      *slog.Logger
}

// optionChecker is implemented by engines that validate options up front.
type optionChecker interface {
	CheckOptions(pre, post []string) error
}

// Option configures a Service.
type Option func(*Service)

// WithFallback sets the remote fallback. A nil fallback is ignored.
func WithFallback(f Fallback) Option {
	return func(s *Service) { s.fallback = f }
}

// WithPolicy selects PolicyError or PolicyOriginal.
func WithPolicy(policy string) Option {
	return func(s *Service) { s.policy = policy }
}

// WithMetrics records engine and fallback outcomes. A nil value is ignored.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService builds a Service. The policy defaults to PolicyError.
func NewService(engine Engine, resolver script.Resolver, log *slog.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		engine:   engine,
		resolver: resolver,
		policy:   PolicyError,
		metrics:  nopMetrics{},
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch s.policy {
	case PolicyError, PolicyOriginal:
	default:
		return nil, fmt.Errorf("unknown failure policy %q", s.policy)
	}
	if s.resolver == nil {
		s.resolver = script.NewRangeResolver()
	}
	return s, nil
}

// EngineName reports the primary engine.
func (s *Service) EngineName() string { return s.engine.Name() }

// FallbackName reports the configured fallback or "" when disabled.
func (s *Service) FallbackName() string {
	if s.fallback == nil {
		return ""
	}
	return s.fallback.Name()
}

// ResolverName reports the script detection strategy.
func (s *Service) ResolverName() string { return s.resolver.Name() }

// Policy reports the failure policy.
func (s *Service) Policy() string { return s.policy }

// Scripts is the authoritative catalog of requestable scripts.
func (s *Service) Scripts() []string { return s.engine.Scripts() }

// Transliterate runs one request. Validation failures never reach the engine.
func (s *Service) Transliterate(ctx context.Context, req Request) Outcome {
	out := Outcome{Original: req.Text, Engine: s.engine.Name()}

	to, ok := s.lookup(req.To)
	if !ok {
		out.To = req.To
		out.From = req.From
		if strings.TrimSpace(req.To) == "" {
			out.Err = fmt.Errorf("%w: to_script is required", ErrUnsupportedScript)
		} else {
			out.Err = fmt.Errorf("%w: %q", ErrUnsupportedScript, req.To)
		}
		s.log.Warn("transliteration rejected", slog.String("to_script", req.To), slog.String("error", out.Err.Error()))
		return out
	}
	req.To = to
	out.To = to

	if req.From == "" || strings.EqualFold(req.From, script.Autodetect) {
		req.From = s.resolver.Resolve(req.Text)
		if _, ok := s.lookup(req.From); !ok {
			req.From = script.Autodetect
		}
	} else {
		from, ok := s.lookup(req.From)
		if !ok {
			out.From = req.From
			out.Err = fmt.Errorf("%w: %q", ErrUnsupportedScript, req.From)
			s.log.Warn("transliteration rejected", slog.String("from_script", req.From), slog.String("error", out.Err.Error()))
			return out
		}
		req.From = from
	}
	out.From = req.From

	if c, ok := s.engine.(optionChecker); ok {
		if err := c.CheckOptions(req.PreOptions, req.PostOptions); err != nil {
			out.Err = err
			s.log.Warn("transliteration rejected", slog.String("error", err.Error()))
			return out
		}
	}

	s.log.Info("transliteration request",
		slog.String("from_script", req.From),
		slog.String("to_script", req.To),
		slog.Int("chars", len([]rune(req.Text))),
		slog.String("engine", s.engine.Name()),
	)

	res, err := s.engine.Transliterate(ctx, req)
	if err == nil {
		s.metrics.Transliteration(ctx, s.engine.Name(), "ok")
		out.Text = res.Text
		if res.Source != "" {
			out.From = res.Source
		}
		return out
	}

	s.metrics.Transliteration(ctx, s.engine.Name(), "error")
	s.log.Error("transliteration engine failed", slog.String("engine", s.engine.Name()), slog.String("error", err.Error()))
	if errors.Is(err, ErrUnsupportedScript) || errors.Is(err, ErrUnsupportedOption) {
		out.Err = err
		return out
	}
	err = fmt.Errorf("%w: %v", ErrEngine, err)

	if s.fallback != nil && ctx.Err() == nil {
		text, ferr := s.fallback.Transliterate(ctx, req)
		if ferr == nil {
			s.metrics.Fallback(ctx, s.fallback.Name(), "ok")
			s.log.Info("transliteration served by fallback", slog.String("fallback", s.fallback.Name()))
			out.Text = text
			out.Engine = s.fallback.Name()
			out.Fallback = true
			return out
		}
		s.metrics.Fallback(ctx, s.fallback.Name(), "error")
		s.log.Error("transliteration fallback failed", slog.String("fallback", s.fallback.Name()), slog.String("error", ferr.Error()))
		err = fmt.Errorf("%w; %w: %v", err, ErrFallback, ferr)
	}

	if s.policy == PolicyOriginal {
		out.Text = req.Text
		out.Degraded = true
		return out
	}
	out.Err = err
	return out
}

func (s *Service) lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, n := range s.engine.Scripts() {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	if sc, ok := script.Lookup(name); ok {
		for _, n := range s.engine.Scripts() {
			if n == sc.Name {
				return n, true
			}
		}
	}
	return "", false
}
