package domain

import "strings"

// ExtractDate returns the first whitespace-delimited token of a feed
// executionTime, e.g. "2020-12-16 10:04:20 AM" -> "2020-12-16".
func ExtractDate(executionTime string) (string, bool) {
	fields := strings.Fields(executionTime)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// EnrichStation derives the broken dock count and color for one station.
// Required fields are checked; index is only used for error reporting.
func EnrichStation(raw RawStation, index int) (Station, error) {
	total, err := dockValue(raw.TotalDocks, "totalDocks", index)
	if err != nil {
		return Station{}, err
	}
	available, err := dockValue(raw.AvailableDocks, "availableDocks", index)
	if err != nil {
		return Station{}, err
	}

	broken := total - available
	return Station{
		ID:                    raw.ID,
		StationName:           raw.StationName,
		TotalDocks:            total,
		AvailableDocks:        available,
		AvailableBikes:        raw.AvailableBikes,
		StatusValue:           raw.StatusValue,
		Latitude:              raw.Latitude,
		Longitude:             raw.Longitude,
		LastCommunicationTime: raw.LastCommunicationTime,
		BrokenDocks:           broken,
		StationColor:          Classify(broken),
	}, nil
}

func dockValue(d *DockCount, field string, index int) (int, error) {
	if d == nil {
		return 0, &SchemaError{Field: field, Station: index}
	}
	if !d.Valid() {
		return 0, &SchemaError{Field: field, Station: index, Reason: "not an integer: " + d.Raw}
	}
	return d.N, nil
}

// Enrich classifies every station in the feed and counts how many fall into
// class. The feed is not modified; the summary holds fresh Station values in
// feed order. An unknown class is not an error, it simply counts zero.
//
// The first station with a missing or non-integral dock count aborts enrichment with a
// SchemaError, as does a missing executionTime or stationBeanList.
func Enrich(feed Feed, class Severity) (Summary, error) {
	if feed.ExecutionTime == nil {
		return Summary{}, &SchemaError{Field: "executionTime", Station: -1}
	}
	date, ok := ExtractDate(*feed.ExecutionTime)
	if !ok {
		return Summary{}, &SchemaError{Field: "executionTime", Station: -1}
	}
	if feed.StationBeanList == nil {
		return Summary{}, &SchemaError{Field: "stationBeanList", Station: -1}
	}

	stations := make([]Station, 0, len(feed.StationBeanList))
	colors := make(map[Severity]int, len(Severities))
	for _, sev := range Severities {
		colors[sev] = 0
	}

	count := 0
	for i, raw := range feed.StationBeanList {
		st, err := EnrichStation(raw, i)
		if err != nil {
			return Summary{}, err
		}
		colors[st.StationColor]++
		if st.StationColor == class {
			count++
		}
		stations = append(stations, st)
	}

	return Summary{
		Date:        date,
		Class:       class,
		Count:       count,
		ColorCounts: colors,
		Stations:    stations,
		ProcessedAt: clock.Now().UTC(),
	}, nil
}
