package script

import (
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Resolver guesses the source script of a piece of text. Implementations must
// be safe for concurrent use and free of side effects.
type Resolver interface {
	Name() string
	// Resolve returns a registered script name or Autodetect.
	Resolve(text string) string
}

// Strategy names accepted by NewResolver.
const (
	StrategyAutodetect   = "autodetect"
	StrategyUnicodeRange = "unicode_range"
	StrategyLanguageID   = "language_id"
)

// Strategies lists every resolver name NewResolver understands.
func Strategies() []string {
	return []string{StrategyAutodetect, StrategyUnicodeRange, StrategyLanguageID}
}

// NewResolver builds the resolver registered under name.
func NewResolver(name string) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyAutodetect:
		return AutodetectResolver{}, nil
	case StrategyUnicodeRange, "":
		return NewRangeResolver(), nil
	case StrategyLanguageID:
		return LanguageIDResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown script detection strategy %q", name)
	}
}

// AutodetectResolver leaves detection to the transliteration engine.
type AutodetectResolver struct{}

func (AutodetectResolver) Name() string { return StrategyAutodetect }

func (AutodetectResolver) Resolve(string) string { return Autodetect }

// RangeResolver tests the text against script blocks in a fixed priority
// order. The first script with at least one character in the text wins.
type RangeResolver struct {
	Priority []string
	Default  string
}

// NewRangeResolver returns the resolver with the stock priority list and a
// Devanagari default.
func NewRangeResolver() RangeResolver {
	return RangeResolver{
		Priority: []string{"Devanagari", "Telugu", "Tamil", "Malayalam", "Gurmukhi", "Bengali"},
		Default:  "Devanagari",
	}
}

func (RangeResolver) Name() string { return StrategyUnicodeRange }

func (r RangeResolver) Resolve(text string) string {
	present := make(map[string]bool)
	for _, c := range text {
		if s, ok := Of(c); ok {
			present[s.Name] = true
		}
	}
	for _, name := range r.Priority {
		if present[name] {
			return name
		}
	}
	return r.Default
}

// LanguageIDResolver runs a general purpose language identifier and maps the
// detected language to its script. Languages without a mapping resolve to
// Autodetect.
type LanguageIDResolver struct{}

func (LanguageIDResolver) Name() string { return StrategyLanguageID }

func (LanguageIDResolver) Resolve(text string) string {
	info := whatlanggo.Detect(text)
	if s, ok := ForLanguage(info.Lang.Iso6391()); ok {
		return s.Name
	}
	return Autodetect
}
