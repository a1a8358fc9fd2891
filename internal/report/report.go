// Package report turns the persisted history table into something a person
// can read: a plain table or the series needed to plot counts per date.
package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

// headroom is added on top of the tallest bar so the plot does not touch
// the frame.
const headroom = 1.05

// HistoryReader is implemented by the CSV and SQLite stores.
type HistoryReader interface {
	Rows(ctx context.Context) ([]domain.CountRow, error)
}

// Point is one plotted value. X is 1-based and lines up with Chart.XTicks.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Chart is the data for a bar or line plot of counts per run.
type Chart struct {
	Column string   `json:"column"`
	XTicks []string `json:"x_ticks"`
	Points []Point  `json:"points"`
	YMax   float64  `json:"y_max"`
}

// BuildChart lays out rows in table order. YMax is the largest count plus 5%.
func BuildChart(column string, rows []domain.CountRow) Chart {
	c := Chart{
		Column: column,
		XTicks: make([]string, 0, len(rows)),
		Points: make([]Point, 0, len(rows)),
	}
	peak := 0
	for i, r := range rows {
		c.XTicks = append(c.XTicks, r.Date)
		c.Points = append(c.Points, Point{X: i + 1, Y: r.Count})
		if r.Count > peak {
			peak = r.Count
		}
	}
	c.YMax = math.Round(float64(peak)*headroom*100) / 100
	return c
}

// WriteTable prints rows as an aligned two-column table.
func WriteTable(w io.Writer, column string, rows []domain.CountRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Date\t%s\n", column)
	fmt.Fprintf(tw, "%s\t%s\n", strings.Repeat("-", len("Date")), strings.Repeat("-", len(column)))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\n", r.Date, r.Count)
	}
	return tw.Flush()
}

// WriteBars prints a horizontal bar per row scaled to width characters.
func WriteBars(w io.Writer, chart Chart, width int) error {
	if width <= 0 {
		width = 40
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for i, p := range chart.Points {
		n := 0
		if chart.YMax > 0 {
			n = int(float64(p.Y) / chart.YMax * float64(width))
		}
		fmt.Fprintf(tw, "%s\t|%s %d\n", chart.XTicks[i], strings.Repeat("#", n), p.Y)
	}
	return tw.Flush()
}
