// Package config loads service configuration from built-in defaults, an
// optional YAML file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	ShutdownSecs   int    `yaml:"shutdown_timeout_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
	File  string `yaml:"file"`  // empty disables the log file
}

type TransliterationConfig struct {
	Engine          string `yaml:"engine"` // builtin|aksharamukha
	AksharamukhaURL string `yaml:"aksharamukha_url"`
	ScriptDetection string `yaml:"script_detection"` // autodetect|unicode_range|language_id
	FailurePolicy   string `yaml:"failure_policy"`   // error|original
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type FallbackConfig struct {
	Provider string `yaml:"provider"` // none|http|openai|gemini
	APIURL   string `yaml:"api_url"`
	APIToken string `yaml:"api_token"`
}

// OpenAIConfig for OpenAI or any compatible endpoint
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
}

type OCRConfig struct {
	Engine         string   `yaml:"engine"` // tesseract|gosseract|vision
	TesseractCmd   string   `yaml:"tesseract_cmd"`
	Languages      []string `yaml:"languages"`
	Preprocess     string   `yaml:"preprocess"` // none|grayscale|otsu
	MaxDimension   int      `yaml:"max_dimension"`
	VisionProvider string   `yaml:"vision_provider"` // openai|gemini
}

type JournalConfig struct {
	Driver      string `yaml:"driver"` // none|postgres|sqlite
	DatabaseURL string `yaml:"database_url"`
	Path        string `yaml:"path"`
}

// StorageConfig enables the MinIO image archive when Endpoint is set.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Logging         LoggingConfig         `yaml:"logging"`
	Transliteration TransliterationConfig `yaml:"transliteration"`
	Fallback        FallbackConfig        `yaml:"fallback"`
	AI              AIConfig              `yaml:"ai"`
	OCR             OCRConfig             `yaml:"ocr"`
	Journal         JournalConfig         `yaml:"journal"`
	Storage         StorageConfig         `yaml:"storage"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			MaxUploadBytes: 10 << 20,
			ShutdownSecs:   15,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "scriptbridge.log",
		},
		Transliteration: TransliterationConfig{
			Engine:          "builtin",
			AksharamukhaURL: "https://aksharamukha-plugin.appspot.com",
			ScriptDetection: "unicode_range",
			FailurePolicy:   "error",
			TimeoutSeconds:  30,
		},
		Fallback: FallbackConfig{
			Provider: "http",
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini: GeminiConfig{Model: "gemini-1.5-flash"},
		},
		OCR: OCRConfig{
			Engine:         "tesseract",
			TesseractCmd:   "tesseract",
			Languages:      []string{"eng", "hin", "tel", "tam", "mal", "pan", "ben"},
			Preprocess:     "otsu",
			MaxDimension:   2000,
			VisionProvider: "gemini",
		},
		Journal: JournalConfig{
			Driver: "none",
			Path:   "./data/scriptbridge.db",
		},
		Storage: StorageConfig{
			Bucket: "scriptbridge",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads path (optional) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Server.Host, "HOST")
	overrideInt(&cfg.Server.Port, "PORT")
	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Logging.File, "LOG_FILE")
	overrideString(&cfg.Transliteration.Engine, "TRANSLIT_ENGINE")
	overrideString(&cfg.Transliteration.AksharamukhaURL, "AKSHARAMUKHA_URL")
	overrideString(&cfg.Transliteration.ScriptDetection, "SCRIPT_DETECTION")
	overrideString(&cfg.Transliteration.FailurePolicy, "FAILURE_POLICY")
	overrideString(&cfg.Fallback.Provider, "FALLBACK_PROVIDER")
	overrideString(&cfg.Fallback.APIURL, "FALLBACK_API_URL")
	overrideString(&cfg.Fallback.APIToken, "FALLBACK_API_TOKEN")
	overrideString(&cfg.AI.OpenAI.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.AI.OpenAI.BaseURL, "OPENAI_BASE_URL")
	overrideString(&cfg.AI.OpenAI.Model, "OPENAI_MODEL")
	overrideString(&cfg.AI.Gemini.APIKey, "GEMINI_API_KEY")
	overrideString(&cfg.AI.Gemini.Model, "GEMINI_MODEL")
	overrideString(&cfg.OCR.Engine, "OCR_ENGINE")
	overrideString(&cfg.OCR.TesseractCmd, "TESSERACT_CMD")
	overrideLanguages(&cfg.OCR.Languages, "OCR_LANGUAGES")
	overrideString(&cfg.OCR.Preprocess, "OCR_PREPROCESS")
	overrideString(&cfg.Journal.Driver, "JOURNAL_DRIVER")
	overrideString(&cfg.Journal.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.Journal.Path, "JOURNAL_PATH")
	overrideString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	overrideString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	overrideString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	overrideString(&cfg.Storage.Bucket, "MINIO_BUCKET")
	overrideBool(&cfg.Storage.UseSSL, "MINIO_USE_SSL")
	overrideBool(&cfg.Metrics.Enabled, "METRICS_ENABLED")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

// overrideLanguages accepts Tesseract style "eng+hin" as well as commas.
func overrideLanguages(target *[]string, envKey string) {
	value, ok := os.LookupEnv(envKey)
	if !ok {
		return
	}
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == '+' || r == ',' })
	var trimmed []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) > 0 {
		*target = trimmed
	}
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value)
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	checks := []error{
		oneOf("logging.level", strings.ToLower(cfg.Logging.Level), "debug", "info", "warn", "error"),
		oneOf("transliteration.engine", cfg.Transliteration.Engine, "builtin", "aksharamukha"),
		oneOf("transliteration.script_detection", cfg.Transliteration.ScriptDetection, "autodetect", "unicode_range", "language_id"),
		oneOf("transliteration.failure_policy", cfg.Transliteration.FailurePolicy, "error", "original"),
		oneOf("fallback.provider", cfg.Fallback.Provider, "none", "http", "openai", "gemini"),
		oneOf("ocr.engine", cfg.OCR.Engine, "tesseract", "gosseract", "vision"),
		oneOf("ocr.preprocess", cfg.OCR.Preprocess, "none", "grayscale", "otsu"),
		oneOf("journal.driver", cfg.Journal.Driver, "none", "postgres", "sqlite"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if cfg.OCR.Engine == "vision" {
		if err := oneOf("ocr.vision_provider", cfg.OCR.VisionProvider, "openai", "gemini"); err != nil {
			return err
		}
	}
	if cfg.Journal.Driver == "postgres" && cfg.Journal.DatabaseURL == "" {
		return errors.New("journal.database_url must be set when driver=postgres")
	}
	if cfg.Journal.Driver == "sqlite" && cfg.Journal.Path == "" {
		return errors.New("journal.path must be set when driver=sqlite")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	return nil
}
