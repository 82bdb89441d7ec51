package translit

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/scriptbridge/scriptbridge-api/internal/script"
)

// Offsets inside a Brahmic block that the mapping tables refer to by name.
const (
	offCandrabindu = 0x01
	offAnusvara    = 0x02
	offVocalicR    = 0x0B
	offNukta       = 0x3C
	offSignU       = 0x41
	offSignI       = 0x3F
	offSignR       = 0x43
	offVirama      = 0x4D
	offDandaSingle = 0x64
	offDandaDouble = 0x65
	offDigitZero   = 0x66
	offRa          = 0x30
	offMa          = 0x2E
)

// substitutions replaces an offset the target script does not have with the
// closest sequence of offsets. Replacements are converted again, so chains
// like SSA -> SHA -> SA work. An empty replacement drops the character.
var substitutions = map[rune][]rune{
	0x04:           {0x05},              // short a
	offCandrabindu: {offAnusvara},       // candrabindu
	0x0D:           {0x0F},              // candra e
	0x0E:           {0x0F},              // short e
	0x11:           {0x13},              // candra o
	0x12:           {0x13},              // short o
	0x29:           {0x28},              // nnna
	0x31:           {offRa},             // rra
	0x33:           {0x32},              // lla
	0x34:           {0x33},              // llla
	0x35:           {0x2C},              // va
	0x36:           {0x38},              // sha
	0x37:           {0x36},              // ssa
	offNukta:       {},                  // nukta
	0x44:           {offSignR},          // sign rr
	0x45:           {0x47},              // sign candra e
	0x46:           {0x47},              // sign short e
	0x49:           {0x4B},              // sign candra o
	0x4A:           {0x4B},              // sign short o
	0x50:           {0x13, offAnusvara}, // om
	0x58:           {0x15, offNukta},
	0x59:           {0x16, offNukta},
	0x5A:           {0x17, offNukta},
	0x5B:           {0x1C, offNukta},
	0x5C:           {0x21, offNukta},
	0x5D:           {0x22, offNukta},
	0x5E:           {0x2B, offNukta},
	0x5F:           {0x2F, offNukta},
	0x60:           {offVocalicR},
}

// sourceRules rewrite script-specific characters that have no counterpart at
// the same offset in other blocks.
var sourceRules = map[string]map[rune][]rune{
	"Bengali": {
		0x4E: {0x24, offVirama}, // khanda ta
		0x70: {offRa},           // assamese ra
		0x71: {0x35},            // assamese wa
	},
	"Gurmukhi": {
		0x70: {offAnusvara}, // tippi
		0x71: {},            // addak
	},
	"Oriya": {
		0x71: {0x35}, // wa
	},
	"Telugu": {
		0x5A: {0x31}, // rrra
	},
	"Kannada": {
		0x5E: {0x34}, // llla
	},
	"Malayalam": {
		0x4E: {offRa, offVirama}, // dot reph
		0x54: {offMa, offVirama},
		0x55: {0x2F, offVirama},
		0x56: {0x34, offVirama},
		0x7A: {0x23, offVirama},
		0x7B: {0x28, offVirama},
		0x7C: {offRa, offVirama},
		0x7D: {0x32, offVirama},
		0x7E: {0x33, offVirama},
		0x7F: {0x15, offVirama},
	},
}

// vocalicR spells the vocalic r vowel in scripts that lack it: the
// independent vowel and the vowel sign.
var vocalicR = map[string][2][]rune{
	"Tamil":    {{offRa, offSignU}, {offVirama, offRa, offSignU}},
	"Gurmukhi": {{offRa, offSignI}, {offVirama, offRa, offSignI}},
}

// tamilStops maps the stops Tamil lacks onto the plain stop of the same
// place of articulation. The class selects the superscript used when
// nativization is off: 2 aspirated, 3 voiced, 4 voiced aspirated.
var tamilStops = map[rune]struct {
	base  rune
	class int
}{
	0x16: {0x15, 2}, 0x17: {0x15, 3}, 0x18: {0x15, 4},
	0x1B: {0x1A, 2}, 0x1D: {0x1A, 4},
	0x20: {0x1F, 2}, 0x21: {0x1F, 3}, 0x22: {0x1F, 4},
	0x25: {0x24, 2}, 0x26: {0x24, 3}, 0x27: {0x24, 4},
	0x2B: {0x2A, 2}, 0x2C: {0x2A, 3}, 0x2D: {0x2A, 4},
}

var superscripts = map[int]rune{2: '²', 3: '³', 4: '⁴'}

const maxSubstitutionDepth = 4

// nuktaForms are the blocks whose offsets 0x58-0x5F hold the precomposed
// nukta consonants of Devanagari. Elsewhere those offsets are unrelated
// letters, chillus or fractions.
var nuktaForms = map[string]bool{
	"Devanagari": true,
	"Bengali":    true,
	"Gurmukhi":   true,
	"Oriya":      true,
}

// sharedOffset reports whether off means the same thing in s as in every
// other block of the registry. Characters outside the shared layout are only
// converted through sourceRules.
func sharedOffset(s script.Script, off rune) bool {
	switch {
	case off >= 0x01 && off <= 0x4D, off == 0x50:
		return true
	case off >= 0x58 && off <= 0x5F:
		return nuktaForms[s.Name]
	case off >= 0x60 && off <= 0x6F:
		return true
	}
	return false
}

// BrahmicEngine converts between the Brahmic scripts of the registry by
// re-basing code points from one block onto another. It runs in process and
// keeps no state between calls.
type BrahmicEngine struct{}

// NewBrahmicEngine returns the in-process engine.
func NewBrahmicEngine() *BrahmicEngine {
	return &BrahmicEngine{}
}

func (e *BrahmicEngine) Name() string { return "builtin" }

func (e *BrahmicEngine) Scripts() []string { return script.Names() }

func (e *BrahmicEngine) Options() []string { return optionNames() }

// CheckOptions rejects option names unknown to the engine or used in the
// wrong stage.
func (e *BrahmicEngine) CheckOptions(pre, post []string) error {
	return checkOptions(pre, post)
}

// Transliterate converts req.Text into req.To. With an autodetect source every
// Indic character is read from its own block; otherwise only characters of
// req.From are converted and everything else passes through.
func (e *BrahmicEngine) Transliterate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	target, ok := script.Lookup(req.To)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedScript, req.To)
	}

	auto := req.From == "" || strings.EqualFold(req.From, script.Autodetect)
	var source script.Script
	if !auto {
		source, ok = script.Lookup(req.From)
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedScript, req.From)
		}
	}

	text, err := applyOptions(norm.NFC.String(req.Text), req.PreOptions, stagePre, target)
	if err != nil {
		return Result{}, err
	}

	res := Result{Source: source.Name}
	if auto {
		res.Source = script.Autodetect
		if s, ok := script.Dominant(text); ok {
			res.Source = s.Name
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		src, ok := script.OfBlock(r)
		if !ok || src.Name == target.Name || (!auto && src.Name != source.Name) {
			b.WriteRune(r)
			continue
		}
		off := r - src.Base
		if off == offDandaSingle || off == offDandaDouble || !src.Assigned(off) {
			b.WriteRune(r)
			continue
		}
		out, ok := convertFrom(src, off, target, req.Nativize)
		if !ok {
			b.WriteRune(r)
			continue
		}
		for _, o := range out {
			b.WriteRune(o)
		}
	}

	res.Text, err = applyOptions(b.String(), req.PostOptions, stagePost, target)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func convertFrom(src script.Script, off rune, target script.Script, nativize bool) ([]rune, bool) {
	if rule, ok := sourceRules[src.Name][off]; ok {
		return convertSeq(rule, target, nativize, 0)
	}
	if !sharedOffset(src, off) {
		return nil, false
	}
	return convert(off, target, nativize, 0)
}

func convertSeq(offs []rune, target script.Script, nativize bool, depth int) ([]rune, bool) {
	out := make([]rune, 0, len(offs))
	for _, o := range offs {
		rs, ok := convert(o, target, nativize, depth+1)
		if !ok {
			return nil, false
		}
		out = append(out, rs...)
	}
	return out, true
}

// convert maps one block offset onto target. The boolean is false when no
// representation exists and the caller should keep the original character.
func convert(off rune, target script.Script, nativize bool, depth int) ([]rune, bool) {
	if depth > maxSubstitutionDepth {
		return nil, false
	}

	if target.Name == "Tamil" {
		if stop, ok := tamilStops[off]; ok {
			out := []rune{target.Base + stop.base}
			if !nativize {
				out = append(out, superscripts[stop.class])
			}
			return out, true
		}
		if off == offAnusvara && nativize {
			return []rune{target.Base + offMa, target.Base + offVirama}, true
		}
	}

	if target.Assigned(off) && sharedOffset(target, off) {
		return []rune{target.Base + off}, true
	}

	if spell, ok := vocalicR[target.Name]; ok {
		switch off {
		case offVocalicR:
			return convertSeq(spell[0], target, nativize, depth)
		case offSignR:
			return convertSeq(spell[1], target, nativize, depth)
		}
	}

	if sub, ok := substitutions[off]; ok {
		return convertSeq(sub, target, nativize, depth)
	}
	return nil, false
}
