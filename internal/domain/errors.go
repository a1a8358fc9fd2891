package domain

import (
	"errors"
	"fmt"
)

// ErrSchema matches every SchemaError via errors.Is.
var ErrSchema = errors.New("feed schema violation")

// SchemaError reports a required feed field that is missing or unusable.
// Station is the index into stationBeanList, or -1 for envelope fields.
// An empty Reason means the field was missing.
type SchemaError struct {
	Field   string
	Station int
	Reason  string
}

func (e *SchemaError) Error() string {
	problem := "missing " + e.Field
	if e.Reason != "" {
		problem = e.Field + ": " + e.Reason
	}
	if e.Station < 0 {
		return fmt.Sprintf("%s: %s", ErrSchema, problem)
	}
	return fmt.Sprintf("%s: station %d: %s", ErrSchema, e.Station, problem)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
