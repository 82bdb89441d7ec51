package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transliteration.Engine != "builtin" || cfg.Transliteration.FailurePolicy != "error" {
		t.Fatalf("unexpected transliteration defaults: %+v", cfg.Transliteration)
	}
	if cfg.Server.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10 MiB upload cap, got %d", cfg.Server.MaxUploadBytes)
	}
	if strings.Join(cfg.OCR.Languages, "+") != "eng+hin+tel+tam+mal+pan+ben" {
		t.Fatalf("unexpected OCR languages %v", cfg.OCR.Languages)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TRANSLIT_ENGINE", "aksharamukha")
	t.Setenv("SCRIPT_DETECTION", "language_id")
	t.Setenv("FAILURE_POLICY", "original")
	t.Setenv("FALLBACK_API_URL", "https://translit.example.com/v1")
	t.Setenv("FALLBACK_API_TOKEN", "secret")
	t.Setenv("OCR_LANGUAGES", "eng+tam, tel")
	t.Setenv("JOURNAL_DRIVER", "sqlite")
	t.Setenv("JOURNAL_PATH", "./tmp.db")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port override, got %d", cfg.Server.Port)
	}
	if cfg.Transliteration.Engine != "aksharamukha" || cfg.Transliteration.ScriptDetection != "language_id" {
		t.Fatalf("expected transliteration overrides, got %+v", cfg.Transliteration)
	}
	if cfg.Transliteration.FailurePolicy != "original" {
		t.Fatalf("expected failure policy override")
	}
	if cfg.Fallback.APIURL != "https://translit.example.com/v1" || cfg.Fallback.APIToken != "secret" {
		t.Fatalf("expected fallback overrides")
	}
	if strings.Join(cfg.OCR.Languages, ",") != "eng,tam,tel" {
		t.Fatalf("unexpected languages %v", cfg.OCR.Languages)
	}
	if cfg.Journal.Driver != "sqlite" || cfg.Journal.Path != "./tmp.db" {
		t.Fatalf("expected journal overrides")
	}
	if !cfg.Storage.UseSSL || cfg.Metrics.Enabled {
		t.Fatalf("expected bool overrides")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 7000
transliteration:
  script_detection: autodetect
ocr:
  engine: vision
  vision_provider: openai
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Transliteration.ScriptDetection != "autodetect" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Transliteration.Engine != "builtin" {
		t.Fatalf("defaults lost for unset keys")
	}
	if cfg.Addr() != "0.0.0.0:7000" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{"TRANSLIT_ENGINE", "icu"},
		{"SCRIPT_DETECTION", "guess"},
		{"FAILURE_POLICY", "retry"},
		{"FALLBACK_PROVIDER", "ollama"},
		{"OCR_ENGINE", "easyocr"},
		{"OCR_PREPROCESS", "sepia"},
		{"JOURNAL_DRIVER", "postgres"},
		{"LOG_LEVEL", "trace"},
		{"PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if _, err := Load(""); err == nil {
				t.Fatalf("expected validation error for %s=%s", tt.env, tt.value)
			}
		})
	}
}
