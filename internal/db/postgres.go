package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS request_journal (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	from_script  TEXT,
	to_script    TEXT,
	engine       TEXT,
	fallback     BOOLEAN NOT NULL DEFAULT FALSE,
	status       TEXT NOT NULL,
	error        TEXT,
	input_chars  INTEGER NOT NULL DEFAULT 0,
	output_chars INTEGER NOT NULL DEFAULT 0,
	confidence   NUMERIC(5,4),
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	image_ref    TEXT,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_request_journal_created ON request_journal(created_at);
`

// PostgresJournal stores the journal in PostgreSQL through a pgx pool.
type PostgresJournal struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// OpenPostgres connects, verifies the connection and creates the table.
func OpenPostgres(ctx context.Context, databaseURL string, log *slog.Logger) (*PostgresJournal, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres journal requires DATABASE_URL")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings suited to PgBouncer
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	log.Info("journal connected", slog.String("driver", DriverPostgres))
	return &PostgresJournal{pool: pool, log: log}, nil
}

func (j *PostgresJournal) Record(ctx context.Context, e Entry) error {
	prepare(&e)
	_, err := j.pool.Exec(ctx, `
		INSERT INTO request_journal (
			id, kind, from_script, to_script, engine, fallback, status, error,
			input_chars, output_chars, confidence, duration_ms, image_ref, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12, $13, $14)`,
		e.ID, e.Kind, e.FromScript, e.ToScript, e.Engine, e.Fallback, e.Status, e.Error,
		e.InputChars, e.OutputChars, e.Confidence.String(), e.DurationMS, e.ImageRef, e.CreatedAt,
	)
	return err
}

// MonthlyStats returns statistics for the month containing month.
func (j *PostgresJournal) MonthlyStats(ctx context.Context, month time.Time) (*MonthlyStats, error) {
	start, end := monthBounds(month)
	stats := &MonthlyStats{Month: start.Format("2006-01")}

	var avg string
	err := j.pool.QueryRow(ctx, `
		SELECT `+statsColumns+`,
			COALESCE(AVG(CASE WHEN kind = 'ocr' AND confidence > 0 THEN confidence END), 0)::text
		FROM request_journal
		WHERE created_at >= $1 AND created_at < $2`,
		start, end,
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
	if d, err := decimal.NewFromString(avg); err == nil {
		stats.AvgConfidence = d.Round(4)
	}
	return stats, nil
}

func (j *PostgresJournal) Recent(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	var total int
	if err := j.pool.QueryRow(ctx, `SELECT COUNT(*) FROM request_journal`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := j.pool.Query(ctx, `
		SELECT `+entryColumns+`, COALESCE(confidence, 0)::text, created_at
		FROM request_journal
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var conf string
		err := rows.Scan(
			&e.ID, &e.Kind, &e.FromScript, &e.ToScript, &e.Engine,
			&e.Fallback, &e.Status, &e.Error, &e.InputChars, &e.OutputChars, &e.DurationMS, &e.ImageRef,
			&conf, &e.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		e.Confidence, _ = decimal.NewFromString(conf)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (j *PostgresJournal) Close() error {
	j.pool.Close()
	j.log.Info("journal closed", slog.String("driver", DriverPostgres))
	return nil
}
