package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scriptbridge/scriptbridge-api/api"
	"github.com/scriptbridge/scriptbridge-api/internal/ai"
	"github.com/scriptbridge/scriptbridge-api/internal/config"
	"github.com/scriptbridge/scriptbridge-api/internal/db"
	"github.com/scriptbridge/scriptbridge-api/internal/logging"
	"github.com/scriptbridge/scriptbridge-api/internal/ocr"
	"github.com/scriptbridge/scriptbridge-api/internal/script"
	"github.com/scriptbridge/scriptbridge-api/internal/storage"
	"github.com/scriptbridge/scriptbridge-api/internal/telemetry"
	"github.com/scriptbridge/scriptbridge-api/internal/translit"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, logFile, err := logging.New(cfg.Logging.Level, cfg.Logging.File, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	mp, metricsHandler, err := telemetry.Setup(ctx, cfg.Metrics.Enabled, api.Version, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mp.Shutdown(shutdownCtx)
	}()
	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	aiSettings := ai.Settings{
		OpenAIKey:     cfg.AI.OpenAI.APIKey,
		OpenAIBaseURL: cfg.AI.OpenAI.BaseURL,
		OpenAIModel:   cfg.AI.OpenAI.Model,
		GeminiKey:     cfg.AI.Gemini.APIKey,
		GeminiModel:   cfg.AI.Gemini.Model,
	}

	translitSvc, err := buildTransliterator(ctx, cfg, aiSettings, metrics, logger)
	if err != nil {
		return err
	}

	ocrSvc, err := buildOCR(ctx, cfg, aiSettings, translitSvc, metrics, logger)
	if err != nil {
		return err
	}

	// The journal is optional: without it the service runs with no history.
	journal, err := db.Open(ctx, cfg.Journal.Driver, cfg.Journal.DatabaseURL, cfg.Journal.Path, logger)
	if err != nil {
		logger.Warn("journal not available, running without history", slog.String("error", err.Error()))
		journal = nil
	}
	if journal != nil {
		defer journal.Close()
	}

	handler := api.NewHandler(api.Options{
		Translit:       translitSvc,
		OCR:            ocrSvc,
		Journal:        journal,
		Metrics:        metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting ScriptBridge API",
		slog.String("version", api.Version),
		slog.String("addr", srv.Addr),
		slog.String("translit_engine", translitSvc.EngineName()),
		slog.String("fallback", translitSvc.FallbackName()),
		slog.String("ocr_engine", ocrSvc.EngineName()),
		slog.Bool("journal", journal != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSecs)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildTransliterator(ctx context.Context, cfg config.Config, aiSettings ai.Settings, metrics *telemetry.Metrics, logger *slog.Logger) (*translit.Service, error) {
	timeout := time.Duration(cfg.Transliteration.TimeoutSeconds) * time.Second

	var engine translit.Engine
	switch cfg.Transliteration.Engine {
	case "aksharamukha":
		engine = translit.NewAksharamukhaEngine(cfg.Transliteration.AksharamukhaURL, timeout)
	default:
		engine = translit.NewBrahmicEngine()
	}

	resolver, err := script.NewResolver(cfg.Transliteration.ScriptDetection)
	if err != nil {
		return nil, err
	}

	opts := []translit.Option{
		translit.WithPolicy(cfg.Transliteration.FailurePolicy),
		translit.WithMetrics(metrics),
	}
	fallback, err := buildFallback(ctx, cfg, aiSettings, timeout)
	if err != nil {
		// A misconfigured fallback disables it rather than the service.
		logger.Warn("transliteration fallback disabled", slog.String("error", err.Error()))
	} else if fallback != nil {
		opts = append(opts, translit.WithFallback(fallback))
	}

	return translit.NewService(engine, resolver, logger, opts...)
}

// buildFallback returns a nil interface when no fallback is configured.
func buildFallback(ctx context.Context, cfg config.Config, aiSettings ai.Settings, timeout time.Duration) (translit.Fallback, error) {
	switch cfg.Fallback.Provider {
	case "", "none":
		return nil, nil
	case "http":
		f := translit.NewRemoteFallback(cfg.Fallback.APIURL, cfg.Fallback.APIToken, timeout)
		if f == nil {
			return nil, nil
		}
		return f, nil
	default:
		provider, err := ai.NewProvider(ctx, cfg.Fallback.Provider, aiSettings)
		if err != nil {
			return nil, err
		}
		return ai.NewTransliterator(provider), nil
	}
}

func buildOCR(ctx context.Context, cfg config.Config, aiSettings ai.Settings, tr *translit.Service, metrics *telemetry.Metrics, logger *slog.Logger) (*ocr.Service, error) {
	pre, err := ocr.NewPreprocessor(cfg.OCR.Preprocess, cfg.OCR.MaxDimension)
	if err != nil {
		return nil, err
	}

	var engine ocr.Engine
	switch cfg.OCR.Engine {
	case "gosseract":
		lib, err := ocr.NewTesseractLib()
		if err != nil {
			return nil, err
		}
		engine = lib
	case "vision":
		provider, err := ai.NewProvider(ctx, cfg.OCR.VisionProvider, aiSettings)
		if err != nil {
			return nil, fmt.Errorf("vision ocr: %w", err)
		}
		engine = ocr.NewVisionEngine(provider)
	default:
		engine = ocr.NewTesseractCLI(cfg.OCR.TesseractCmd)
	}

	opts := []ocr.Option{
		ocr.WithLanguages(cfg.OCR.Languages),
		ocr.WithTransliterator(tr),
		ocr.WithMetrics(metrics),
	}

	// Image archiving is optional, same as the journal.
	if cfg.Storage.Endpoint != "" {
		archiver, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		}, logger)
		if err != nil {
			logger.Warn("image archive not available", slog.String("error", err.Error()))
		} else {
			opts = append(opts, ocr.WithArchiver(archiver))
		}
	}

	return ocr.NewService(pre, engine, logger, opts...), nil
}
