package columns

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownColumn is returned when an assignment names a field that is not
// in the dataset.
var ErrUnknownColumn = errors.New("assigned column not present in dataset")

// ErrIncomplete is returned when time or thrust is missing from a manual
// assignment.
var ErrIncomplete = errors.New("time and at least one thrust column are required")

// Assignment maps roles to column names. An empty string or empty slice
// means the role is unresolved.
type Assignment struct {
	Time            string   `json:"time" yaml:"time"`
	Thrust          []string `json:"thrust" yaml:"thrust"`
	ChamberPressure string   `json:"chamber_pressure,omitempty" yaml:"chamber_pressure,omitempty"`
	FuelWeight      string   `json:"fuel_weight,omitempty" yaml:"fuel_weight,omitempty"`
	OxidizerWeight  string   `json:"oxidizer_weight,omitempty" yaml:"oxidizer_weight,omitempty"`
}

// Complete reports whether the required roles are present.
func (a Assignment) Complete() bool {
	return a.Time != "" && len(a.Thrust) > 0
}

// HasPropellants reports whether both tank weights are assigned, which is
// what the O/F ratio needs.
func (a Assignment) HasPropellants() bool {
	return a.FuelWeight != "" && a.OxidizerWeight != ""
}

// Columns lists every assigned column name in role order.
func (a Assignment) Columns() []string {
	out := make([]string, 0, 4+len(a.Thrust))
	if a.Time != "" {
		out = append(out, a.Time)
	}
	out = append(out, a.Thrust...)
	for _, c := range []string{a.ChamberPressure, a.FuelWeight, a.OxidizerWeight} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every assigned name is one of fields.
func (a Assignment) Validate(fields []string) error {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}

	var missing []string
	for _, c := range a.Columns() {
		if _, ok := known[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns a deep copy.
func (a Assignment) Clone() Assignment {
	a.Thrust = append([]string(nil), a.Thrust...)
	return a
}
