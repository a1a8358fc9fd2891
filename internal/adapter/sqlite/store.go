// Package sqlite keeps the run history in an embedded SQLite table. Unlike
// the CSV store it appends rows instead of rewriting the whole history.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS station_counts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	date        TEXT NOT NULL,
	class       TEXT NOT NULL,
	count       INTEGER NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_station_counts_class ON station_counts(class, id);
`

// Store implements pipeline.Loader on top of SQLite.
type Store struct {
	db      *sql.DB
	class   domain.Severity
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open opens (creating if needed) the database at path and migrates it.
// The pool is limited to one connection so there is a single writer.
func Open(path string, class domain.Severity, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, class: class, logger: logger, metrics: metrics}, nil
}

// OpenReadOnly opens an existing database for reading. Unlike Open it
// neither creates the file nor migrates it; a missing path is an error
// wrapping fs.ErrNotExist.
func OpenReadOnly(path string, class domain.Severity, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Store{db: db, class: class, logger: logger, metrics: metrics}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load appends one row for the summary.
func (s *Store) Load(ctx context.Context, summary domain.Summary) error {
	if summary.Class != s.class {
		return fmt.Errorf("summary class %q does not match store class %q", summary.Class, s.class)
	}

	recordedAt := summary.ProcessedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO station_counts (run_id, date, class, count, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		summary.RunID, summary.Date, string(summary.Class), summary.Count, recordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert station count: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM station_counts WHERE class = ?`, string(s.class),
	).Scan(&total); err == nil {
		s.metrics.TableRows.Set(float64(total))
	}

	s.logger.Debug("station count recorded", "date", summary.Date, "class", summary.Class, "count", summary.Count)
	return nil
}

// Rows returns the history for the store's class in insertion order.
func (s *Store) Rows(ctx context.Context) ([]domain.CountRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, count FROM station_counts WHERE class = ? ORDER BY id`, string(s.class))
	if err != nil {
		return nil, fmt.Errorf("query station counts: %w", err)
	}
	defer rows.Close()

	var out []domain.CountRow
	for rows.Next() {
		var r domain.CountRow
		if err := rows.Scan(&r.Date, &r.Count); err != nil {
			return nil, fmt.Errorf("scan station count: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
