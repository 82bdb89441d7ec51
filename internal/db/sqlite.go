package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS request_journal (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	from_script  TEXT,
	to_script    TEXT,
	engine       TEXT,
	fallback     INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	error        TEXT,
	input_chars  INTEGER NOT NULL DEFAULT 0,
	output_chars INTEGER NOT NULL DEFAULT 0,
	confidence   REAL,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	image_ref    TEXT,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_journal_created ON request_journal(created_at);
`

// SQLiteJournal stores the journal in a local SQLite file. Timestamps are
// unix milliseconds.
type SQLiteJournal struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens the journal database at path, creating its directory
// and schema when missing.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLiteJournal, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite journal requires a path")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	log.Info("journal opened", slog.String("driver", DriverSQLite), slog.String("path", path))
	return &SQLiteJournal{db: db, log: log}, nil
}

func (j *SQLiteJournal) Record(ctx context.Context, e Entry) error {
	prepare(&e)
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO request_journal (
			id, kind, from_script, to_script, engine, fallback, status, error,
			input_chars, output_chars, confidence, duration_ms, image_ref, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Kind, e.FromScript, e.ToScript, e.Engine, e.Fallback, e.Status, e.Error,
		e.InputChars, e.OutputChars, e.Confidence.InexactFloat64(), e.DurationMS, e.ImageRef, e.CreatedAt.UnixMilli(),
	)
	return err
}

func (j *SQLiteJournal) MonthlyStats(ctx context.Context, month time.Time) (*MonthlyStats, error) {
	start, end := monthBounds(month)
	stats := &MonthlyStats{Month: start.Format("2006-01")}

	var avg sql.NullFloat64
	err := j.db.QueryRowContext(ctx, `
		SELECT `+statsColumns+`,
			AVG(CASE WHEN kind = 'ocr' AND confidence > 0 THEN confidence END)
		FROM request_journal
		WHERE created_at >= ? AND created_at < ?`,
		start.UnixMilli(), end.UnixMilli(),
	).Scan(
		&stats.Transliterations,
		&stats.OCRRequests,
		&stats.Failures,
		&stats.Fallbacks,
		&avg,
	)
	if err != nil {
		return nil, err
	}
	if avg.Valid {
		stats.AvgConfidence = decimal.NewFromFloat(avg.Float64).Round(4)
	}
	return stats, nil
}

func (j *SQLiteJournal) Recent(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM request_journal`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`, COALESCE(confidence, 0), created_at
		FROM request_journal
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id string
		var conf float64
		var created int64
		err := rows.Scan(
			&id, &e.Kind, &e.FromScript, &e.ToScript, &e.Engine,
			&e.Fallback, &e.Status, &e.Error, &e.InputChars, &e.OutputChars, &e.DurationMS, &e.ImageRef,
			&conf, &created,
		)
		if err != nil {
			return nil, 0, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, 0, fmt.Errorf("parse entry id: %w", err)
		}
		e.Confidence = decimal.NewFromFloat(conf).Round(4)
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
