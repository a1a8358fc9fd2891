// Command report prints the persisted history table for a station class and,
// optionally, the data for a counts-per-run chart.
//
// Usage:
//
//	go run ./cmd/report -class red -path red_stations_statistics.csv
//	go run ./cmd/report -backend sqlite -path station_counts.db -class yellow -bars
//	go run ./cmd/report -class red -chart > chart.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/dock-health-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/dock-health-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/dock-health-etl/internal/config"
	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
	"github.com/couchcryptid/dock-health-etl/internal/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	backend := fs.String("backend", config.BackendCSV, "history backend: csv or sqlite")
	path := fs.String("path", "", "history file (defaults to <class>_stations_statistics.csv or station_counts.db)")
	className := fs.String("class", "red", "station class: green, yellow or red")
	chart := fs.Bool("chart", false, "print chart data as JSON instead of the table")
	bars := fs.Bool("bars", false, "print a bar per run after the table")
	width := fs.Int("width", 40, "bar width in characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	class, err := domain.ParseSeverity(*className)
	if err != nil {
		return err
	}

	// stdout carries the report, so diagnostics go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewUnregisteredMetrics()

	var history report.HistoryReader
	switch *backend {
	case config.BackendCSV:
		p := *path
		if p == "" {
			p = config.DefaultOutputPath(".", class)
		}
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		history = csvstore.New(p, class, metrics, logger)
	case config.BackendSQLite:
		p := *path
		if p == "" {
			p = "station_counts.db"
		}
		db, err := sqlite.OpenReadOnly(p, class, metrics, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		history = db
	default:
		fs.Usage()
		return fmt.Errorf("unknown backend %q", *backend)
	}

	rows, err := history.Rows(context.Background())
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	column := class.Column()
	c := report.BuildChart(column, rows)
	if *chart {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	if err := report.WriteTable(out, column, rows); err != nil {
		return err
	}
	if *bars {
		fmt.Fprintln(out)
		return report.WriteBars(out, c, *width)
	}
	return nil
}
