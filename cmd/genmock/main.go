// Command genmock generates a deterministic station status feed for local runs
// and tests, together with the summary the job is expected to produce from it.
// It uses the actual domain package so the expected output matches real
// pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -stations 120 -seed 7 \
//	  -feed-out data/mock/stations.json \
//	  -summary-out data/mock/stations_red_summary.json
//
//	# serve the generated feed at http://localhost:8090/stations/json
//	go run ./cmd/genmock -serve :8090
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

var processedAt = time.Date(2021, time.January, 1, 9, 15, 2, 0, time.UTC)

// genOptions controls the synthetic feed.
type genOptions struct {
	stations      int
	seed          uint64
	executionTime string
	anomalyRate   float64 // share of stations reporting more free docks than they have
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	stations := flag.Int("stations", 50, "number of stations to generate")
	seed := flag.Uint64("seed", 1, "random seed; the same seed yields the same feed")
	execTime := flag.String("execution-time", "2021-01-01 09:15:02 AM", "feed executionTime value")
	anomalies := flag.Float64("anomaly-rate", 0.05, "share of stations with negative available docks")
	className := flag.String("class", "red", "class used for the expected summary")
	feedOut := flag.String("feed-out", "", "output path for the feed JSON fixture")
	summaryOut := flag.String("summary-out", "", "output path for the expected summary JSON")
	serve := flag.String("serve", "", "serve the feed on this address instead of exiting")
	flag.Parse()

	if *feedOut == "" && *serve == "" {
		flag.Usage()
		return errors.New("one of -feed-out or -serve is required")
	}
	if *stations < 0 {
		return errors.New("-stations must not be negative")
	}

	class, err := domain.ParseSeverity(*className)
	if err != nil {
		return err
	}

	feed := generateFeed(genOptions{
		stations:      *stations,
		seed:          *seed,
		executionTime: *execTime,
		anomalyRate:   *anomalies,
	})

	// Fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	summary, err := domain.Enrich(feed, class)
	if err != nil {
		return fmt.Errorf("enrich generated feed: %w", err)
	}
	printStats(summary)

	if *feedOut != "" {
		if err := writeJSON(*feedOut, feed); err != nil {
			return fmt.Errorf("writing feed fixture: %w", err)
		}
		log.Printf("wrote feed fixture: %s", *feedOut)
	}
	if *summaryOut != "" {
		if err := writeJSON(*summaryOut, summary); err != nil {
			return fmt.Errorf("writing summary fixture: %w", err)
		}
		log.Printf("wrote summary fixture: %s", *summaryOut)
	}

	if *serve != "" {
		return serveFeed(*serve, feed)
	}
	return nil
}

// generateFeed builds a Citi Bike shaped feed. Stations are spread across the
// three classes; anomalyRate of them report a negative availableDocks.
func generateFeed(opts genOptions) domain.Feed {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	execTime := opts.executionTime

	list := make([]domain.RawStation, 0, opts.stations)
	for i := range opts.stations {
		total := 15 + rng.IntN(46) // 15..60 docks
		var available int
		switch {
		case rng.Float64() < opts.anomalyRate:
			available = -1 - rng.IntN(30)
		default:
			available = rng.IntN(total + 1)
		}
		bikes := max(0, total-max(available, 0)-rng.IntN(5))

		list = append(list, domain.RawStation{
			ID:                    72 + i,
			StationName:           fmt.Sprintf("Station %03d", i+1),
			TotalDocks:            domain.Docks(total),
			AvailableDocks:        domain.Docks(available),
			AvailableBikes:        bikes,
			StatusValue:           "In Service",
			Latitude:              40.70 + rng.Float64()*0.12,
			Longitude:             -74.02 + rng.Float64()*0.08,
			LastCommunicationTime: execTime,
		})
	}
	return domain.Feed{ExecutionTime: &execTime, StationBeanList: list}
}

func serveFeed(addr string, feed domain.Feed) error {
	body, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stations/json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("serving feed at http://%s/stations/json", addr)
	return srv.ListenAndServe()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(s domain.Summary) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Date: %s\n", s.Date)
	fmt.Printf("Stations: %d\n", len(s.Stations))
	fmt.Printf("By color: green=%d, yellow=%d, red=%d\n",
		s.ColorCounts[domain.Green], s.ColorCounts[domain.Yellow], s.ColorCounts[domain.Red])
	fmt.Printf("%s: %d\n", s.Column(), s.Count)

	var anomalous, maxBroken int
	for _, st := range s.Stations {
		if st.AvailableDocks < 0 {
			anomalous++
		}
		maxBroken = max(maxBroken, st.BrokenDocks)
	}
	fmt.Printf("Negative availableDocks: %d\n", anomalous)
	fmt.Printf("Max broken docks: %d\n", maxBroken)
}
