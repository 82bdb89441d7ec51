package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scriptbridge.log")
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	log, closer, err := New("info", path, &console)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hidden")
	log.Info("transliteration request", "to_script", "Telugu")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "previous run\n") {
		t.Errorf("log file was truncated: %q", data)
	}
	for name, out := range map[string]string{"file": string(data), "console": console.String()} {
		if !strings.Contains(out, "to_script=Telugu") {
			t.Errorf("%s missing record: %q", name, out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("%s contains debug record", name)
		}
	}
}

func TestNewWithoutFile(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New("debug", "", &console)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	log.Debug("visible")
	if !strings.Contains(console.String(), "visible") {
		t.Errorf("debug record missing: %q", console.String())
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
	if lvl, err := ParseLevel("WARN"); err != nil || lvl.String() != "WARN" {
		t.Errorf("ParseLevel(WARN) = %v, %v", lvl, err)
	}
}
