package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenNone(t *testing.T) {
	j, err := Open(context.Background(), DriverNone, "", "", newLogger())
	if err != nil || j != nil {
		t.Fatalf("Open(none) = %v, %v", j, err)
	}
	if _, err := Open(context.Background(), "mongo", "", "", newLogger()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLiteRecordAndStats(t *testing.T) {
	ctx := context.Background()
	j, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "data", "journal.db"), newLogger())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Kind: KindTransliterate, FromScript: "Devanagari", ToScript: "Telugu", Engine: "builtin", Status: StatusOK, CreatedAt: now},
		{Kind: KindTransliterate, ToScript: "Tamil", Engine: "http", Fallback: true, Status: StatusOK, CreatedAt: now},
		{Kind: KindTransliterate, ToScript: "Klingon", Status: StatusError, Error: "unsupported script", CreatedAt: now},
		{Kind: KindOCR, Status: StatusOK, Confidence: decimal.RequireFromString("0.8"), CreatedAt: now},
		{Kind: KindOCR, Status: StatusOK, Confidence: decimal.RequireFromString("0.6"), CreatedAt: now},
		{Kind: KindOCR, Status: StatusError, CreatedAt: now},
		// previous month, excluded
		{Kind: KindOCR, Status: StatusOK, CreatedAt: now.AddDate(0, -1, 0)},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := j.MonthlyStats(ctx, now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Month != "2026-03" {
		t.Errorf("month = %q", stats.Month)
	}
	if stats.Transliterations != 3 || stats.OCRRequests != 3 {
		t.Errorf("counts = %d/%d, want 3/3", stats.Transliterations, stats.OCRRequests)
	}
	if stats.Failures != 2 || stats.Fallbacks != 1 {
		t.Errorf("failures = %d, fallbacks = %d", stats.Failures, stats.Fallbacks)
	}
	if !stats.AvgConfidence.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("avg confidence = %s, want 0.7", stats.AvgConfidence)
	}
}

func TestSQLiteRecentPaginates(t *testing.T) {
	ctx := context.Background()
	j, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "journal.db"), newLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		e := Entry{Kind: KindOCR, Status: StatusOK, OutputChars: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if i == 4 {
			e.Confidence = decimal.RequireFromString("0.9125")
			e.ImageRef = "scriptbridge/ocr/2026/05/x.png"
		}
		if err := j.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, total, err := j.Recent(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(entries) != 2 {
		t.Fatalf("total = %d, page = %d", total, len(entries))
	}
	newest := entries[0]
	if newest.OutputChars != 4 || newest.ImageRef == "" || !newest.CreatedAt.Equal(base.Add(4*time.Minute)) {
		t.Errorf("newest = %+v", newest)
	}
	if !newest.Confidence.Equal(decimal.RequireFromString("0.9125")) {
		t.Errorf("confidence = %s", newest.Confidence)
	}

	entries, _, err = j.Recent(ctx, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].OutputChars != 0 {
		t.Errorf("last page = %+v", entries)
	}
}

func TestSQLiteStatsEmptyMonth(t *testing.T) {
	ctx := context.Background()
	j, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "journal.db"), newLogger())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = j.Close() })

	stats, err := j.MonthlyStats(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Transliterations != 0 || !stats.AvgConfidence.IsZero() {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMonthBounds(t *testing.T) {
	start, end := monthBounds(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC))
	if !start.Equal(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bounds = %v .. %v", start, end)
	}
}
