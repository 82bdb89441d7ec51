package translit

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
)

const (
	zwnj = '\u200C'
	zwj  = '\u200D'
)

// Processing options understood by the builtin engine. Names are matched
// case-insensitively.
const (
	OptStripJoiners = "StripJoiners"
	OptRemoveNukta  = "RemoveNukta"
	OptNativeDigits = "NativeDigits"
	OptASCIIDigits  = "ASCIIDigits"
)

type stage int

const (
	stagePre stage = iota
	stagePost
)

type option struct {
	name   string
	stages []stage
	apply  func(text string, target script.Script) string
}

var options = []option{
	{name: OptStripJoiners, stages: []stage{stagePre, stagePost}, apply: stripJoiners},
	{name: OptRemoveNukta, stages: []stage{stagePre}, apply: removeNukta},
	{name: OptNativeDigits, stages: []stage{stagePost}, apply: nativeDigits},
	{name: OptASCIIDigits, stages: []stage{stagePost}, apply: asciiDigits},
}

func optionNames() []string {
	names := make([]string, 0, len(options))
	for _, o := range options {
		names = append(names, o.name)
	}
	return names
}

func findOption(name string, st stage) (option, bool) {
	for _, o := range options {
		if !strings.EqualFold(o.name, strings.TrimSpace(name)) {
			continue
		}
		for _, s := range o.stages {
			if s == st {
				return o, true
			}
		}
	}
	return option{}, false
}

// checkOptions validates option lists without applying them.
func checkOptions(pre, post []string) error {
	for _, name := range pre {
		if _, ok := findOption(name, stagePre); !ok {
			return fmt.Errorf("%w: pre option %q", ErrUnsupportedOption, name)
		}
	}
	for _, name := range post {
		if _, ok := findOption(name, stagePost); !ok {
			return fmt.Errorf("%w: post option %q", ErrUnsupportedOption, name)
		}
	}
	return nil
}

func applyOptions(text string, names []string, st stage, target script.Script) (string, error) {
	for _, name := range names {
		o, ok := findOption(name, st)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedOption, name)
		}
		text = o.apply(text, target)
	}
	return text, nil
}

func stripJoiners(text string, _ script.Script) string {
	return strings.Map(func(r rune) rune {
		if r == zwj || r == zwnj {
			return -1
		}
		return r
	}, text)
}

func removeNukta(text string, _ script.Script) string {
	return strings.Map(func(r rune) rune {
		if s, ok := script.OfBlock(r); ok && r-s.Base == offNukta {
			return -1
		}
		return r
	}, text)
}

func nativeDigits(text string, target script.Script) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return target.Base + offDigitZero + (r - '0')
		}
		return r
	}, text)
}

func asciiDigits(text string, _ script.Script) string {
	return strings.Map(func(r rune) rune {
		if !unicode.IsDigit(r) {
			return r
		}
		if s, ok := script.OfBlock(r); ok {
			if off := r - s.Base; off >= offDigitZero && off <= offDigitZero+9 {
				return '0' + off - offDigitZero
			}
		}
		return r
	}, text)
}
