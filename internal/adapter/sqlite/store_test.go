package sqlite

import (
	"context"
	"io/fs"
	"os"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
)

func openTestStore(t *testing.T, path string, class domain.Severity) (*Store, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	s, err := Open(path, class, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, metrics
}

func TestStore_LoadAndRows(t *testing.T) {
	s, metrics := openTestStore(t, filepath.Join(t.TempDir(), "counts.db"), domain.Red)
	ctx := context.Background()

	want := []domain.CountRow{
		{Date: "2020-12-16", Count: 10},
		{Date: "2020-12-16", Count: 10},
		{Date: "2020-12-17", Count: 3},
	}
	for i, r := range want {
		require.NoError(t, s.Load(ctx, domain.Summary{
			RunID:       "run-" + string(rune('a'+i)),
			Date:        r.Date,
			Class:       domain.Red,
			Count:       r.Count,
			ProcessedAt: time.Date(2020, 12, 16, 10, i, 0, 0, time.UTC),
		}))
	}

	got, err := s.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.TableRows), 0)
}

func TestStore_RowsEmpty(t *testing.T) {
	s, _ := openTestStore(t, filepath.Join(t.TempDir(), "counts.db"), domain.Green)

	got, err := s.Rows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ClassesAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.db")
	red, _ := openTestStore(t, path, domain.Red)
	require.NoError(t, red.Load(context.Background(), domain.Summary{Date: "2021-01-01", Class: domain.Red, Count: 4}))
	require.NoError(t, red.Close())

	green, _ := openTestStore(t, path, domain.Green)
	require.NoError(t, green.Load(context.Background(), domain.Summary{Date: "2021-01-01", Class: domain.Green, Count: 80}))

	rows, err := green.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CountRow{{Date: "2021-01-01", Count: 80}}, rows)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "counts.db")

	first, _ := openTestStore(t, path, domain.Yellow)
	require.NoError(t, first.Load(context.Background(), domain.Summary{Date: "2021-01-01", Class: domain.Yellow, Count: 1}))
	require.NoError(t, first.Close())

	second, _ := openTestStore(t, path, domain.Yellow)
	require.NoError(t, second.Load(context.Background(), domain.Summary{Date: "2021-01-02", Class: domain.Yellow, Count: 2}))

	rows, err := second.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CountRow{
		{Date: "2021-01-01", Count: 1},
		{Date: "2021-01-02", Count: 2},
	}, rows)
}

func TestStore_ClassMismatch(t *testing.T) {
	s, _ := openTestStore(t, filepath.Join(t.TempDir(), "counts.db"), domain.Red)

	err := s.Load(context.Background(), domain.Summary{Date: "2021-01-01", Class: domain.Yellow})
	require.Error(t, err)
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := OpenReadOnly(path, domain.Red, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist, "read-only open must not create the database")
}

func TestOpenReadOnly_ReadsHistoryAndRejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.db")
	ctx := context.Background()

	w, _ := openTestStore(t, path, domain.Yellow)
	require.NoError(t, w.Load(ctx, domain.Summary{RunID: "run-1", Date: "2021-01-01", Class: domain.Yellow, Count: 4}))
	require.NoError(t, w.Close())

	r, err := OpenReadOnly(path, domain.Yellow, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	got, err := r.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CountRow{{Date: "2021-01-01", Count: 4}}, got)

	err = r.Load(ctx, domain.Summary{RunID: "run-2", Date: "2021-01-02", Class: domain.Yellow, Count: 1})
	require.Error(t, err)
}
