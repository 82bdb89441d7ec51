package script

import "testing"

func TestRangeResolverSingleScript(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"Devanagari", "धर्म क्षेत्रे", "Devanagari"},
		{"Telugu", "తెలుగు భాష", "Telugu"},
		{"Tamil", "தமிழ் மொழி", "Tamil"},
		{"Malayalam", "മലയാളം", "Malayalam"},
		{"Gurmukhi", "ਪੰਜਾਬੀ", "Gurmukhi"},
		{"Bengali", "বাংলা ভাষা", "Bengali"},
		{"Latin falls back to default", "hello world", "Devanagari"},
		{"Empty falls back to default", "", "Devanagari"},
		{"Only danda", "।", "Devanagari"},
	}

	r := NewRangeResolver()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Resolve(tc.input); got != tc.expect {
				t.Errorf("Resolve(%q) = %q, want %q", tc.input, got, tc.expect)
			}
		})
	}
}

func TestRangeResolverPriority(t *testing.T) {
	r := NewRangeResolver()
	// Bengali dominates by count but Telugu comes first in priority order.
	if got := r.Resolve("বাংলা বাংলা తె"); got != "Telugu" {
		t.Fatalf("expected Telugu by priority, got %q", got)
	}
	// Gujarati is not in the priority list.
	if got := r.Resolve("ગુજરાતી"); got != "Devanagari" {
		t.Fatalf("expected default for unlisted script, got %q", got)
	}
}

func TestAutodetectResolver(t *testing.T) {
	r, err := NewResolver("autodetect")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.Resolve("తెలుగు"); got != Autodetect {
		t.Fatalf("expected %q, got %q", Autodetect, got)
	}
}

func TestLanguageIDResolver(t *testing.T) {
	r := LanguageIDResolver{}
	if got := r.Resolve("తెలుగు భాష చాలా అందమైన భాష"); got != "Telugu" {
		t.Fatalf("expected Telugu, got %q", got)
	}
	if got := r.Resolve("தமிழ் மொழி மிகவும் பழமையான மொழி"); got != "Tamil" {
		t.Fatalf("expected Tamil, got %q", got)
	}
	if got := r.Resolve("Привет, как дела? Это русский текст."); got != Autodetect {
		t.Fatalf("expected autodetect for unmapped language, got %q", got)
	}
}

func TestNewResolverUnknown(t *testing.T) {
	if _, err := NewResolver("crystal_ball"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	for _, name := range Strategies() {
		r, err := NewResolver(name)
		if err != nil {
			t.Fatalf("NewResolver(%q): %v", name, err)
		}
		if r.Name() != name {
			t.Fatalf("resolver name = %q, want %q", r.Name(), name)
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("odia")
	if !ok || s.Name != "Oriya" {
		t.Fatalf("alias lookup failed: %+v %v", s, ok)
	}
	if _, ok := Lookup("Klingon"); ok {
		t.Fatal("unexpected match for unknown script")
	}
	if got := Canonical("TELUGU"); got != "Telugu" {
		t.Fatalf("Canonical = %q", got)
	}
	if got := Canonical("AutoDetect"); got != Autodetect {
		t.Fatalf("Canonical autodetect = %q", got)
	}
}

func TestForLanguage(t *testing.T) {
	cases := map[string]string{
		"hi": "Devanagari",
		"mr": "Devanagari",
		"bn": "Bengali",
		"pa": "Gurmukhi",
		"te": "Telugu",
		"ta": "Tamil",
		"ml": "Malayalam",
		"kn": "Kannada",
		"gu": "Gujarati",
		"or": "Oriya",
	}
	for code, want := range cases {
		s, ok := ForLanguage(code)
		if !ok || s.Name != want {
			t.Errorf("ForLanguage(%q) = %q, %v; want %q", code, s.Name, ok, want)
		}
	}
	if _, ok := ForLanguage("ru"); ok {
		t.Error("ru should not map to a Brahmic script")
	}
}

func TestDominant(t *testing.T) {
	s, ok := Dominant("abc తెలుగు ध")
	if !ok || s.Name != "Telugu" {
		t.Fatalf("Dominant = %+v, %v", s, ok)
	}
	if _, ok := Dominant("plain ascii"); ok {
		t.Fatal("expected no dominant script")
	}
}

func TestAssigned(t *testing.T) {
	tamil, _ := Lookup("Tamil")
	if tamil.Assigned(0x16) { // KHA does not exist in Tamil
		t.Fatal("Tamil KHA should be unassigned")
	}
	if !tamil.Assigned(0x15) {
		t.Fatal("Tamil KA should be assigned")
	}
}

func TestTesseractLanguages(t *testing.T) {
	got := TesseractLanguages("Devanagari", "nope", "tamil")
	if len(got) != 2 || got[0] != "hin" || got[1] != "tam" {
		t.Fatalf("unexpected languages: %v", got)
	}
}
