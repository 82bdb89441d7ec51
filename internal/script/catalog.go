// Package script holds the registry of Brahmic scripts the service understands
// and the strategies used to guess which script a piece of text is written in.
package script

import (
	"sort"
	"strings"
	"unicode"

	"github.com/go-text/typesetting/language"
)

// Autodetect is the marker used in place of a source script when the engine
// is expected to work the script out on its own.
const Autodetect = "autodetect"

// BlockSize is the width of every Brahmic block in the ISCII-parallel layout.
const BlockSize = 0x80

// Script describes one Brahmic script. All registered scripts share the same
// relative layout inside their Unicode block, which is what makes offset based
// conversion between them possible.
type Script struct {
	Name      string
	Base      rune
	Table     *unicode.RangeTable
	Tesseract string   // traineddata code
	Languages []string // ISO 639-1 codes written in this script
	Aliases   []string

	tag language.Script
}

// Contains reports whether r lies in the script's Unicode block.
func (s Script) Contains(r rune) bool {
	return r >= s.Base && r < s.Base+BlockSize
}

// Assigned reports whether the code point at offset off of the block is a
// character of this script.
func (s Script) Assigned(off rune) bool {
	return unicode.Is(s.Table, s.Base+off)
}

var registry = []Script{
	{Name: "Devanagari", Base: 0x0900, Table: unicode.Devanagari, Tesseract: "hin", Languages: []string{"hi", "mr", "ne", "sa"}, tag: language.Devanagari},
	{Name: "Bengali", Base: 0x0980, Table: unicode.Bengali, Tesseract: "ben", Languages: []string{"bn", "as"}, Aliases: []string{"Bangla"}, tag: language.Bengali},
	{Name: "Gurmukhi", Base: 0x0A00, Table: unicode.Gurmukhi, Tesseract: "pan", Languages: []string{"pa"}, tag: language.Gurmukhi},
	{Name: "Gujarati", Base: 0x0A80, Table: unicode.Gujarati, Tesseract: "guj", Languages: []string{"gu"}, tag: language.Gujarati},
	{Name: "Oriya", Base: 0x0B00, Table: unicode.Oriya, Tesseract: "ori", Languages: []string{"or"}, Aliases: []string{"Odia"}, tag: language.Oriya},
	{Name: "Tamil", Base: 0x0B80, Table: unicode.Tamil, Tesseract: "tam", Languages: []string{"ta"}, tag: language.Tamil},
	{Name: "Telugu", Base: 0x0C00, Table: unicode.Telugu, Tesseract: "tel", Languages: []string{"te"}, tag: language.Telugu},
	{Name: "Kannada", Base: 0x0C80, Table: unicode.Kannada, Tesseract: "kan", Languages: []string{"kn"}, tag: language.Kannada},
	{Name: "Malayalam", Base: 0x0D00, Table: unicode.Malayalam, Tesseract: "mal", Languages: []string{"ml"}, tag: language.Malayalam},
}

// All returns every registered script in block order.
func All() []Script {
	out := make([]Script, len(registry))
	copy(out, registry)
	return out
}

// Names returns the canonical script names sorted alphabetically.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a script by canonical name or alias, ignoring case.
func Lookup(name string) (Script, bool) {
	name = strings.TrimSpace(name)
	for _, s := range registry {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
		for _, a := range s.Aliases {
			if strings.EqualFold(a, name) {
				return s, true
			}
		}
	}
	return Script{}, false
}

// Canonical returns the registered spelling of name, or name unchanged when
// it is not a registered script.
func Canonical(name string) string {
	if s, ok := Lookup(name); ok {
		return s.Name
	}
	if strings.EqualFold(strings.TrimSpace(name), Autodetect) {
		return Autodetect
	}
	return name
}

// Of returns the registered script r belongs to. Shared punctuation such as
// the danda is classified as Common by Unicode and is not attributed to any
// script.
func Of(r rune) (Script, bool) {
	tag := language.LookupScript(r)
	for _, s := range registry {
		if s.tag == tag {
			return s, true
		}
	}
	return Script{}, false
}

// OfBlock returns the registered script whose block contains r, regardless of
// whether the code point is assigned.
func OfBlock(r rune) (Script, bool) {
	for _, s := range registry {
		if s.Contains(r) {
			return s, true
		}
	}
	return Script{}, false
}

// ForLanguage maps an ISO 639-1 code to the script it is written in.
func ForLanguage(code string) (Script, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, s := range registry {
		for _, l := range s.Languages {
			if l == code {
				return s, true
			}
		}
	}
	return Script{}, false
}

// Dominant counts runes per registered script and returns the most frequent
// one. Ties keep the script seen first.
func Dominant(text string) (Script, bool) {
	counts := make(map[string]int)
	var best Script
	max := 0
	for _, r := range text {
		s, ok := Of(r)
		if !ok {
			continue
		}
		counts[s.Name]++
		if counts[s.Name] > max {
			max = counts[s.Name]
			best = s
		}
	}
	return best, max > 0
}

// TesseractLanguages converts script names to a Tesseract language list,
// skipping names that are not registered.
func TesseractLanguages(names ...string) []string {
	var langs []string
	for _, n := range names {
		if s, ok := Lookup(n); ok {
			langs = append(langs, s.Tesseract)
		}
	}
	return langs
}
