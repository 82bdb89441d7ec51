// Package translit converts text between scripts. It wraps a primary engine
// with catalog validation, source script resolution, an optional remote
// fallback and a single per-deployment failure policy.
package translit

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedScript = errors.New("unsupported script")
	ErrUnsupportedOption = errors.New("unsupported option")
	ErrEngine            = errors.New("transliteration engine failed")
	ErrFallback          = errors.New("remote fallback failed")
)

// Request is one transliteration call.
type Request struct {
	Text        string
	From        string // script name or script.Autodetect
	To          string
	Nativize    bool
	PreOptions  []string
	PostOptions []string
}

// Result is what an engine produced. Source is the script the engine actually
// read, which differs from Request.From when autodetecting.
type Result struct {
	Text   string
	Source string
}

// Engine performs transliteration.
type Engine interface {
	Name() string
	// Scripts lists every script name the engine accepts, sorted.
	Scripts() []string
	// Options lists the pre/post processing options the engine accepts.
	Options() []string
	Transliterate(ctx context.Context, req Request) (Result, error)
}

// Fallback is a remote service consulted once when the primary engine fails.
type Fallback interface {
	Name() string
	Transliterate(ctx context.Context, req Request) (string, error)
}
