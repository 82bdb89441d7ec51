// Package telemetry exposes request counters through OpenTelemetry with a
// Prometheus exporter.
package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

const meterName = "github.com/scriptbridge/scriptbridge-api"

// Setup installs a global meter provider. With enabled=false the provider
// has no reader and the returned handler is nil.
func Setup(ctx context.Context, enabled bool, version string, logger *slog.Logger) (*sdkmetric.MeterProvider, http.Handler, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("scriptbridge-api"),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	if !enabled {
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		return mp, nil, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		logger.Warn("failed to initialize prometheus exporter", slog.String("error", err.Error()))
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		return mp, nil, nil
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	logger.Info("metrics initialized", slog.String("exporter", "prometheus"))
	return mp, promhttp.Handler(), nil
}

// Metrics records transliteration, fallback and OCR outcomes.
type Metrics struct {
	transliterations metric.Int64Counter
	fallbacks        metric.Int64Counter
	ocrRequests      metric.Int64Counter
	ocrDuration      metric.Float64Histogram
}

// NewMetrics registers the service instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	transliterations, err := meter.Int64Counter("scriptbridge.transliterations",
		metric.WithDescription("Transliteration engine calls by engine and status"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("scriptbridge.fallbacks",
		metric.WithDescription("Remote fallback calls by provider and status"))
	if err != nil {
		return nil, err
	}
	ocrRequests, err := meter.Int64Counter("scriptbridge.ocr.requests",
		metric.WithDescription("OCR requests by status"))
	if err != nil {
		return nil, err
	}
	ocrDuration, err := meter.Float64Histogram("scriptbridge.ocr.duration",
		metric.WithDescription("OCR processing time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transliterations: transliterations,
		fallbacks:        fallbacks,
		ocrRequests:      ocrRequests,
		ocrDuration:      ocrDuration,
	}, nil
}

func (m *Metrics) Transliteration(ctx context.Context, engine, status string) {
	m.transliterations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("status", status),
	))
}

func (m *Metrics) Fallback(ctx context.Context, provider, status string) {
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}

func (m *Metrics) OCR(ctx context.Context, status string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.ocrRequests.Add(ctx, 1, attrs)
	m.ocrDuration.Record(ctx, elapsed.Seconds(), attrs)
}
