package domain

import (
	"fmt"
	"strings"
)

// Severity is a dock health class assigned from a station's broken dock count.
type Severity string

const (
	Green  Severity = "green"
	Yellow Severity = "yellow"
	Red    Severity = "red"
)

// Severities lists every known class in ascending order of severity.
var Severities = []Severity{Green, Yellow, Red}

// Classification thresholds, inclusive on the green side and exclusive on the
// yellow side: 10 is green, 30 is red.
const (
	greenMaxBroken  = 10
	yellowMaxBroken = 30
)

// columnNames maps each class to the count column used in the history table
// and in summary payloads.
var columnNames = map[Severity]string{
	Green:  "GreenStations",
	Yellow: "YellowStations",
	Red:    "RedStations",
}

// Classify maps a broken dock count to a severity class:
//   - green:  b <= 10 (negative counts from inconsistent data land here)
//   - yellow: 10 < b < 30
//   - red:    b >= 30
func Classify(brokenDocks int) Severity {
	switch {
	case brokenDocks <= greenMaxBroken:
		return Green
	case brokenDocks < yellowMaxBroken:
		return Yellow
	default:
		return Red
	}
}

// ParseSeverity resolves a class name, ignoring case and surrounding space.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity class %q (want green, yellow or red)", s)
	}
	return sev, nil
}

// Valid reports whether s is one of the known classes.
func (s Severity) Valid() bool {
	_, ok := columnNames[s]
	return ok
}

// Column returns the history table column holding the count for s, e.g.
// "RedStations". Unknown classes fall back to "<Capitalized>Stations" so a
// summary for them still has a well-formed (always zero) count column.
func (s Severity) Column() string {
	if name, ok := columnNames[s]; ok {
		return name
	}
	if s == "" {
		return "Stations"
	}
	return strings.ToUpper(string(s[:1])) + strings.ToLower(string(s[1:])) + "Stations"
}

func (s Severity) String() string { return string(s) }
