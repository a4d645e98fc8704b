package burn

import (
	"encoding/json"
	"fmt"
	"math"

	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/dataset"
)

// MetricSet is either an error state (Error non-empty) or a full set of
// burn metrics, never both.
type MetricSet struct {
	Error string

	BurnDuration  float64
	TotalImpulse  float64
	AverageThrust float64
	// PeakChamberPressure is nil when no chamber column is assigned.
	PeakChamberPressure *float64
	// OFRatio is aligned with the core mask's selected samples and is nil
	// unless both propellant weights are assigned.
	OFRatio []float64

	ThrustUnit   string
	PressureUnit string
}

// ErrorMetrics returns the error state for reason.
func ErrorMetrics(reason string) MetricSet {
	return MetricSet{Error: reason}
}

// OK reports whether the set holds metrics rather than an error.
func (m MetricSet) OK() bool { return m.Error == "" }

// FormattedDuration renders burn duration with three decimals.
func (m MetricSet) FormattedDuration() string { return fmt.Sprintf("%.3f", m.BurnDuration) }

// FormattedImpulse renders total impulse with two decimals.
func (m MetricSet) FormattedImpulse() string { return fmt.Sprintf("%.2f", m.TotalImpulse) }

// Entry is one labelled, formatted metric.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Entries lists the metrics in display order with unit-bearing labels.
// An error state yields a single "Error" entry.
func (m MetricSet) Entries() []Entry {
	if !m.OK() {
		return []Entry{{Label: "Error", Value: m.Error}}
	}
	out := []Entry{
		{Label: "Burn Time (s)", Value: m.FormattedDuration()},
		{Label: fmt.Sprintf("Total Impulse (%s·s)", m.ThrustUnit), Value: m.FormattedImpulse()},
		{Label: fmt.Sprintf("Average Thrust (%s)", m.ThrustUnit), Value: fmt.Sprintf("%.2f", m.AverageThrust)},
	}
	if m.PeakChamberPressure != nil {
		out = append(out, Entry{
			Label: fmt.Sprintf("Peak Chamber Pressure (%s)", m.PressureUnit),
			Value: fmt.Sprintf("%.2f", *m.PeakChamberPressure),
		})
	}
	return out
}

type metricSetJSON struct {
	BurnDuration        string    `json:"burn_duration"`
	TotalImpulse        string    `json:"total_impulse"`
	AverageThrust       float64   `json:"average_thrust"`
	PeakChamberPressure *float64  `json:"peak_chamber_pressure,omitempty"`
	OFRatio             []float64 `json:"of_ratio,omitempty"`
	ThrustUnit          string    `json:"thrust_unit"`
	PressureUnit        string    `json:"pressure_unit,omitempty"`
}

// MarshalJSON emits {"error": ...} for an error state and the formatted
// metrics otherwise.
func (m MetricSet) MarshalJSON() ([]byte, error) {
	if !m.OK() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{m.Error})
	}
	out := metricSetJSON{
		BurnDuration:        m.FormattedDuration(),
		TotalImpulse:        m.FormattedImpulse(),
		AverageThrust:       m.AverageThrust,
		PeakChamberPressure: m.PeakChamberPressure,
		OFRatio:             finite(m.OFRatio),
		ThrustUnit:          m.ThrustUnit,
	}
	if m.PeakChamberPressure != nil {
		out.PressureUnit = m.PressureUnit
	}
	return json.Marshal(out)
}

// finite replaces NaN and Inf with 0 so the series survives JSON encoding.
func finite(xs []float64) []float64 {
	if xs == nil {
		return nil
	}
	out := make([]float64, len(xs))
	for i, v := range xs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}

// ComputeMetrics integrates thrust over the samples selected by core.
//
// Burn duration is the time at the last selected sample minus the time at
// the first. Total impulse is the trapezoidal integral of summed thrust
// over the selected samples in order. Average thrust is impulse over
// duration, or zero when duration is not positive. Peak chamber pressure
// is taken over the whole dataset, not just the window.
func ComputeMetrics(ds *dataset.Dataset, a columns.Assignment, core Mask) (MetricSet, error) {
	if ds == nil || ds.Len() == 0 {
		err := newError(EmptyDataset, ReasonEmptyDataset, nil)
		return ErrorMetrics(err.Reason), err
	}
	if !a.Complete() {
		err := newError(MissingRequiredColumn, ReasonMissingData, nil)
		return ErrorMetrics(err.Reason), err
	}
	if err := a.Validate(ds.Fields()); err != nil {
		ee := newError(MissingRequiredColumn, ReasonMissingData, err)
		return ErrorMetrics(ee.Reason), ee
	}
	if len(core) != ds.Len() {
		ee := newError(EmptyWindow, ReasonEmptyWindow,
			fmt.Errorf("mask has %d samples, dataset has %d", len(core), ds.Len()))
		return ErrorMetrics(ee.Reason), ee
	}
	if core.Count() == 0 {
		ee := newError(EmptyWindow, ReasonEmptyWindow, nil)
		return ErrorMetrics(ee.Reason), ee
	}

	times, _ := ds.Column(a.Time)
	total, _ := ds.SumColumns(a.Thrust)

	t := core.Select(times)
	f := core.Select(total)

	m := MetricSet{
		BurnDuration: t[len(t)-1] - t[0],
		TotalImpulse: Trapezoid(f, t),
		ThrustUnit:   columns.Unit(a.Thrust[0], "lbf"),
	}
	if m.BurnDuration > 0 {
		m.AverageThrust = m.TotalImpulse / m.BurnDuration
	}

	if a.ChamberPressure != "" {
		pc, _ := ds.Column(a.ChamberPressure)
		if peak, ok := nanMax(pc); ok {
			m.PeakChamberPressure = &peak
			m.PressureUnit = columns.Unit(a.ChamberPressure, "psi")
		}
	}

	if a.HasPropellants() {
		fuel, _ := ds.Column(a.FuelWeight)
		ox, _ := ds.Column(a.OxidizerWeight)
		m.OFRatio = OFRatio(core.Select(fuel), core.Select(ox))
	}

	return m, nil
}

// Trapezoid integrates y over x with the trapezoidal rule.
func Trapezoid(y, x []float64) float64 {
	n := min(len(x), len(y))
	sum := 0.0
	for i := 1; i < n; i++ {
		sum += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return sum
}

// OFRatio divides oxidizer by fuel weight per sample. A small epsilon keeps
// the ratio finite where fuel weight is zero.
func OFRatio(fuel, ox []float64) []float64 {
	n := min(len(fuel), len(ox))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = ox[i] / (fuel[i] + config.OFEpsilon)
	}
	return out
}

func nanMax(xs []float64) (float64, bool) {
	best := math.Inf(-1)
	found := false
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		if v > best {
			best = v
		}
		found = true
	}
	return best, found
}
