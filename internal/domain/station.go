package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// RawStation is one entry of the feed's stationBeanList as received.
// The dock counts are pointers so a missing field can be told apart from 0.
// Decoding is lenient (see UnmarshalJSON): only the dock counts are checked,
// and that happens during enrichment.
type RawStation struct {
	ID                    int        `json:"id"`
	StationName           string     `json:"stationName"`
	TotalDocks            *DockCount `json:"totalDocks"`
	AvailableDocks        *DockCount `json:"availableDocks"`
	AvailableBikes        int        `json:"availableBikes"`
	StatusValue           string     `json:"statusValue"`
	Latitude              float64    `json:"latitude"`
	Longitude             float64    `json:"longitude"`
	LastCommunicationTime string     `json:"lastCommunicationTime"`
}

// Feed is the station status envelope returned by the upstream feed.
// A nil StationBeanList means the field was absent (or null, or not an
// array); an empty, non-nil slice means the feed reported no stations.
type Feed struct {
	ExecutionTime   *string      `json:"executionTime"`
	StationBeanList []RawStation `json:"stationBeanList"`
}

// Station is a station record after enrichment.
type Station struct {
	ID                    int      `json:"id"`
	StationName           string   `json:"stationName,omitempty"`
	TotalDocks            int      `json:"totalDocks"`
	AvailableDocks        int      `json:"availableDocks"`
	AvailableBikes        int      `json:"availableBikes"`
	StatusValue           string   `json:"statusValue,omitempty"`
	Latitude              float64  `json:"latitude,omitempty"`
	Longitude             float64  `json:"longitude,omitempty"`
	LastCommunicationTime string   `json:"lastCommunicationTime,omitempty"`
	BrokenDocks           int      `json:"brokenDocks"`
	StationColor          Severity `json:"stationColor"`
}

// Summary is the per-run aggregate handed to loaders. Its JSON form also
// carries the count under the class column, e.g. "RedStations": 1.
type Summary struct {
	RunID       string           `json:"run_id,omitempty"`
	Date        string           `json:"date"`
	Class       Severity         `json:"class"`
	Count       int              `json:"count"`
	ColorCounts map[Severity]int `json:"color_counts"`
	Stations    []Station        `json:"data"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// Column is the name of the count field for the summary's class, e.g.
// "RedStations".
func (s Summary) Column() string {
	return s.Class.Column()
}

// MarshalJSON emits the summary fields with the class count field first.
func (s Summary) MarshalJSON() ([]byte, error) {
	type summary Summary
	body, err := json.Marshal(summary(s))
	if err != nil {
		return nil, err
	}
	key, err := json.Marshal(s.Column())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+len(key)+16)
	out = append(out, '{')
	out = append(out, key...)
	out = append(out, ':')
	out = strconv.AppendInt(out, int64(s.Count), 10)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}

// CountRow is one row of the persisted history table.
type CountRow struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
