package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// maxExactFloat is the largest integer a float64 holds without rounding.
const maxExactFloat = 1 << 53

// DockCount is a dock field as sent by the feed. Any JSON number with an
// integral value is accepted, so 20 and 20.0 both decode to N=20. Anything
// else is kept verbatim in Raw and reported by enrichment.
type DockCount struct {
	N   int
	Raw string
}

// Docks returns a valid count of n docks.
func Docks(n int) *DockCount {
	return &DockCount{N: n}
}

// Valid reports whether the feed value was an integral number.
func (d DockCount) Valid() bool { return d.Raw == "" }

// UnmarshalJSON never fails. A JSON null never reaches it: the owning
// pointer is left nil, which enrichment treats as a missing field.
func (d *DockCount) UnmarshalJSON(b []byte) error {
	*d = DockCount{}
	if n, ok := integral(b); ok {
		d.N = n
		return nil
	}
	d.Raw = string(b)
	return nil
}

func (d DockCount) MarshalJSON() ([]byte, error) {
	if d.Raw != "" {
		return []byte(d.Raw), nil
	}
	return strconv.AppendInt(nil, int64(d.N), 10), nil
}

func integral(b []byte) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := num.Int64(); err == nil {
		return int(i), true
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return 0, false
	}
	return int(f), true
}

// UnmarshalJSON decodes a station without rejecting it. Fields that hold a
// value of the wrong JSON type are dropped (left zero), and an entry that is
// not an object decodes to a station with no dock counts.
func (r *RawStation) UnmarshalJSON(b []byte) error {
	var wire struct {
		ID                    json.RawMessage `json:"id"`
		StationName           json.RawMessage `json:"stationName"`
		TotalDocks            *DockCount      `json:"totalDocks"`
		AvailableDocks        *DockCount      `json:"availableDocks"`
		AvailableBikes        json.RawMessage `json:"availableBikes"`
		StatusValue           json.RawMessage `json:"statusValue"`
		Latitude              json.RawMessage `json:"latitude"`
		Longitude             json.RawMessage `json:"longitude"`
		LastCommunicationTime json.RawMessage `json:"lastCommunicationTime"`
	}
	*r = RawStation{}
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil //nolint:nilerr // not an object: no fields present
	}

	r.TotalDocks = wire.TotalDocks
	r.AvailableDocks = wire.AvailableDocks
	lenient(wire.ID, &r.ID)
	lenient(wire.StationName, &r.StationName)
	lenient(wire.AvailableBikes, &r.AvailableBikes)
	lenient(wire.StatusValue, &r.StatusValue)
	lenient(wire.Latitude, &r.Latitude)
	lenient(wire.Longitude, &r.Longitude)
	lenient(wire.LastCommunicationTime, &r.LastCommunicationTime)
	return nil
}

// lenient decodes raw into dst, leaving dst untouched on a type mismatch.
func lenient(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// UnmarshalJSON decodes the envelope without rejecting it. executionTime is
// only taken when it is a string and stationBeanList only when it is an
// array; otherwise the field is treated as absent.
func (f *Feed) UnmarshalJSON(b []byte) error {
	var wire struct {
		ExecutionTime   json.RawMessage `json:"executionTime"`
		StationBeanList json.RawMessage `json:"stationBeanList"`
	}
	*f = Feed{}
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil //nolint:nilerr // not an object: no fields present
	}

	if len(wire.ExecutionTime) > 0 && wire.ExecutionTime[0] == '"' {
		var s string
		if err := json.Unmarshal(wire.ExecutionTime, &s); err == nil {
			f.ExecutionTime = &s
		}
	}
	if len(wire.StationBeanList) > 0 && wire.StationBeanList[0] == '[' {
		var list []RawStation
		if err := json.Unmarshal(wire.StationBeanList, &list); err == nil {
			f.StationBeanList = list
		}
	}
	return nil
}
