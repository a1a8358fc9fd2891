// Package csvstore persists the per-run history table as a CSV file with a
// "Date,<Color>Stations" header and one row per run.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
)

const dateColumn = "Date"

// newTableMode is the permission of a table written where none existed.
const newTableMode fs.FileMode = 0o644

// errCorrupt marks a prior table that exists but cannot be used.
var errCorrupt = errors.New("corrupt history table")

// Store implements pipeline.Loader by rewriting the whole table on every run.
// It takes no file lock; two jobs writing the same path can lose rows.
type Store struct {
	path    string
	class   domain.Severity
	column  string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a store for the history of class at path.
func New(path string, class domain.Severity, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{
		path:    path,
		class:   class,
		column:  class.Column(),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
}

// Path returns the table file location.
func (s *Store) Path() string { return s.path }

// Load appends one (date, count) row for the summary to the table.
//
// A missing or empty table starts a fresh history. A table that cannot be
// parsed is moved aside to "<path>.corrupt-<timestamp>" and also replaced by
// a fresh history, so the run still succeeds and the old rows stay on disk.
func (s *Store) Load(ctx context.Context, summary domain.Summary) error {
	if summary.Class != s.class {
		return fmt.Errorf("summary class %q does not match table column %s", summary.Class, s.column)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, err := s.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("no prior history table, starting fresh", "path", s.path)
		rows = nil
	case err != nil:
		s.metrics.TableLoadFailures.Inc()
		quarantined := s.quarantine()
		s.logger.Warn("prior history table unreadable, starting fresh",
			"path", s.path,
			"quarantined_to", quarantined,
			"error", err,
		)
		rows = nil
	}

	rows = append(rows, domain.CountRow{Date: summary.Date, Count: summary.Count})
	if err := s.write(rows); err != nil {
		return err
	}

	s.metrics.TableRows.Set(float64(len(rows)))
	s.logger.Debug("history table written", "path", s.path, "rows", len(rows))
	return nil
}

// Rows returns the persisted history in file order. A missing table yields
// no rows; a corrupt one is an error.
func (s *Store) Rows(_ context.Context) ([]domain.CountRow, error) {
	rows, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return rows, err
}

// read parses the table, keeping only the Date and count columns. Extra
// columns are ignored; a missing expected column is corruption.
func (s *Store) read() ([]domain.CountRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", errCorrupt, err)
	}

	dateIdx, countIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case dateColumn:
			dateIdx = i
		case s.column:
			countIdx = i
		}
	}
	if dateIdx < 0 || countIdx < 0 {
		return nil, fmt.Errorf("%w: header %v lacks %s or %s", errCorrupt, header, dateColumn, s.column)
	}

	var rows []domain.CountRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCorrupt, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(rec[countIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: count %q is not an integer", errCorrupt, line, rec[countIdx])
		}
		rows = append(rows, domain.CountRow{Date: rec[dateIdx], Count: count})
	}
	return rows, nil
}

// write replaces the table with header + rows via a temp file and rename.
// The replacement keeps the permissions of the table it replaces.
func (s *Store) write(rows []domain.CountRow) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table dir: %w", err)
	}

	mode := newTableMode
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{dateColumn, s.column}); err != nil {
		tmp.Close()
		return fmt.Errorf("write table header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Date, strconv.Itoa(row.Count)}); err != nil {
			tmp.Close()
			return fmt.Errorf("write table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("set table mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

// quarantine moves the unreadable table aside and returns its new path, or
// "" when the move failed and the file will simply be overwritten. An
// earlier quarantined copy with the same timestamp is never replaced; the
// new one gets a numeric suffix instead.
func (s *Store) quarantine() string {
	dst := s.quarantinePath()
	if err := os.Rename(s.path, dst); err != nil {
		s.logger.Error("failed to quarantine history table", "path", s.path, "error", err)
		return ""
	}
	return dst
}

func (s *Store) quarantinePath() string {
	base := fmt.Sprintf("%s.corrupt-%s", s.path, s.clock.Now().UTC().Format("20060102T150405Z"))
	dst := base
	for i := 1; ; i++ {
		if _, err := os.Lstat(dst); err != nil {
			return dst
		}
		dst = fmt.Sprintf("%s-%d", base, i)
	}
}
