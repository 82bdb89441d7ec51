// Package db keeps an optional journal of processed requests. Only metadata
// is stored, never the submitted text or image.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal drivers.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Request kinds.
const (
	KindTransliterate = "transliterate"
	KindOCR           = "ocr"
)

// Entry statuses.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// Entry is one journal row.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	FromScript  string          `json:"from_script,omitempty"`
	ToScript    string          `json:"to_script,omitempty"`
	Engine      string          `json:"engine,omitempty"`
	Fallback    bool            `json:"fallback"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	InputChars  int             `json:"input_chars"`
	OutputChars int             `json:"output_chars"`
	Confidence  decimal.Decimal `json:"confidence"`
	DurationMS  int64           `json:"duration_ms"`
	ImageRef    string          `json:"image_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MonthlyStats aggregates the journal over one calendar month (UTC).
type MonthlyStats struct {
	Month            string          `json:"month"`
	Transliterations int64           `json:"transliterations"`
	OCRRequests      int64           `json:"ocr_requests"`
	Failures         int64           `json:"failures"`
	Fallbacks        int64           `json:"fallbacks"`
	AvgConfidence    decimal.Decimal `json:"avg_ocr_confidence"`
}

// Journal records requests and summarises them.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	MonthlyStats(ctx context.Context, month time.Time) (*MonthlyStats, error)
	// Recent lists entries newest first together with the total row count.
	Recent(ctx context.Context, limit, offset int) ([]Entry, int, error)
	Close() error
}

// Open connects the configured driver. DriverNone (or "") returns a nil
// Journal and no error.
func Open(ctx context.Context, driver, databaseURL, path string, log *slog.Logger) (Journal, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverPostgres:
		j, err := OpenPostgres(ctx, databaseURL, log)
		if err != nil {
			return nil, err
		}
		return j, nil
	case DriverSQLite:
		j, err := OpenSQLite(ctx, path, log)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
}

// prepare fills in the generated fields of e.
func prepare(e *Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.Confidence = e.Confidence.Round(4)
}

// monthBounds returns [start, end) of the UTC month containing t.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

const entryColumns = `id, kind, COALESCE(from_script, ''), COALESCE(to_script, ''), COALESCE(engine, ''),
	fallback, status, COALESCE(error, ''), input_chars, output_chars, duration_ms, COALESCE(image_ref, '')`

const statsColumns = `
	COALESCE(SUM(CASE WHEN kind = 'transliterate' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN kind = 'ocr' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN fallback THEN 1 ELSE 0 END), 0)`
