package analysis

import (
	"errors"
	"fmt"

	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/dataset"
	"hotfire/internal/performance"
)

var (
	// ErrUnknownSeries is returned for a name that is neither a derived
	// series nor a dataset column.
	ErrUnknownSeries = errors.New("unknown series")
	// ErrSeriesUnavailable is returned when a series needs a role that is
	// not assigned.
	ErrSeriesUnavailable = errors.New("series unavailable for current column assignment")
	// ErrInputsRequired is returned for performance series requested
	// without mass flow inputs.
	ErrInputsRequired = errors.New("mass flow inputs are required")
)

// SeriesName identifies a derived series.
type SeriesName string

const (
	SeriesThrust           SeriesName = "thrust"
	SeriesChamberPressure  SeriesName = "chamber_pressure"
	SeriesFuelWeight       SeriesName = "fuel_weight"
	SeriesOxidizerWeight   SeriesName = "oxidizer_weight"
	SeriesOFRatio          SeriesName = "of_ratio"
	SeriesTotalThrustRaw   SeriesName = "total_thrust_raw"
	SeriesSpecificImpulse  SeriesName = "isp"
	SeriesExhaustVelocity  SeriesName = "exhaust_velocity"
	SeriesCharacteristicVc SeriesName = "c_star"
)

// StandardSeries lists the derived series in presentation order.
var StandardSeries = []SeriesName{
	SeriesThrust,
	SeriesChamberPressure,
	SeriesOFRatio,
	SeriesFuelWeight,
	SeriesOxidizerWeight,
	SeriesCharacteristicVc,
	SeriesSpecificImpulse,
	SeriesExhaustVelocity,
	SeriesTotalThrustRaw,
}

// Series is a time/value pair ready for plotting or export.
type Series struct {
	Name   SeriesName `json:"name"`
	Title  string     `json:"title"`
	XLabel string     `json:"x_label"`
	YLabel string     `json:"y_label"`
	Time   []float64  `json:"time"`
	Values []float64  `json:"values"`
	// Smoothed is set when a smoothing window above one was requested.
	Smoothed []float64 `json:"smoothed,omitempty"`
}

// SeriesOptions shape a series request.
type SeriesOptions struct {
	// Core selects the core mask instead of the padded mask.
	Core       bool
	Downsample int
	Smooth     int
	Inputs     *performance.Inputs
}

// BuildSeries extracts name from ds over mask. Derived names are computed
// from the assignment; any other name is looked up as a raw dataset column.
// The total_thrust_raw series ignores mask.
func BuildSeries(ds *dataset.Dataset, a columns.Assignment, mask burn.Mask, name SeriesName, opts SeriesOptions) (Series, error) {
	if ds == nil {
		return Series{}, ErrNotLoaded
	}
	if a.Time == "" {
		return Series{}, fmt.Errorf("%w: time column not assigned", ErrSeriesUnavailable)
	}
	if name == SeriesTotalThrustRaw {
		mask = burn.AllTrue(ds.Len())
	}
	if len(mask) != ds.Len() {
		return Series{}, fmt.Errorf("mask has %d samples, dataset has %d", len(mask), ds.Len())
	}

	timeCol, err := ds.Column(a.Time)
	if err != nil {
		return Series{}, err
	}
	timeUnit := columns.Unit(a.Time, "s")
	thrustUnit := "lbf"
	if len(a.Thrust) > 0 {
		thrustUnit = columns.Unit(a.Thrust[0], "lbf")
	}

	s := Series{Name: name, XLabel: fmt.Sprintf("Time (%s)", timeUnit)}
	var values []float64

	column := func(role, col string) ([]float64, error) {
		if col == "" {
			return nil, fmt.Errorf("%w: %s column not assigned", ErrSeriesUnavailable, role)
		}
		return ds.Column(col)
	}
	totalThrust := func() ([]float64, error) {
		if len(a.Thrust) == 0 {
			return nil, fmt.Errorf("%w: thrust column not assigned", ErrSeriesUnavailable)
		}
		return ds.SumColumns(a.Thrust)
	}
	inputs := func() (performance.Inputs, error) {
		if opts.Inputs == nil {
			return performance.Inputs{}, ErrInputsRequired
		}
		return *opts.Inputs, nil
	}

	switch name {
	case SeriesThrust:
		s.Title, s.YLabel = "Thrust vs Time", fmt.Sprintf("Thrust (%s)", thrustUnit)
		values, err = totalThrust()
	case SeriesTotalThrustRaw:
		s.Title, s.YLabel = "Test Data: Total Thrust", fmt.Sprintf("Thrust (%s)", thrustUnit)
		values, err = totalThrust()
	case SeriesChamberPressure:
		s.Title = "Chamber Pressure vs Time"
		s.YLabel = fmt.Sprintf("Pressure (%s)", columns.Unit(a.ChamberPressure, "psi"))
		values, err = column("chamber pressure", a.ChamberPressure)
	case SeriesFuelWeight:
		s.Title = "Fuel Tank Weight"
		s.YLabel = fmt.Sprintf("Weight (%s)", columns.Unit(a.FuelWeight, "lbf"))
		values, err = column("fuel weight", a.FuelWeight)
	case SeriesOxidizerWeight:
		s.Title = "Oxidizer Tank Weight"
		s.YLabel = fmt.Sprintf("Weight (%s)", columns.Unit(a.OxidizerWeight, "lbf"))
		values, err = column("oxidizer weight", a.OxidizerWeight)
	case SeriesOFRatio:
		s.Title, s.YLabel = "O/F Ratio vs Time", "O/F Ratio"
		var fuel, ox []float64
		if fuel, err = column("fuel weight", a.FuelWeight); err == nil {
			if ox, err = column("oxidizer weight", a.OxidizerWeight); err == nil {
				values = burn.OFRatio(fuel, ox)
			}
		}
	case SeriesSpecificImpulse, SeriesExhaustVelocity:
		var in performance.Inputs
		var thrust []float64
		if in, err = inputs(); err == nil {
			if thrust, err = totalThrust(); err == nil {
				values, err = performance.SpecificImpulse(thrust, in)
			}
		}
		if name == SeriesSpecificImpulse {
			s.Title, s.YLabel = "Specific Impulse (Isp) vs Time", "Isp (s)"
		} else {
			s.Title, s.YLabel = "Exhaust Velocity (Ve) vs Time", "Exhaust Velocity (m/s)"
			if err == nil {
				values = performance.ExhaustVelocity(values)
			}
		}
	case SeriesCharacteristicVc:
		s.Title, s.YLabel = "Characteristic Velocity (c*) vs Time", "Characteristic Velocity (c*) (m/s)"
		var in performance.Inputs
		var pc []float64
		if in, err = inputs(); err == nil {
			if pc, err = column("chamber pressure", a.ChamberPressure); err == nil {
				values, err = performance.CharacteristicVelocity(pc, in)
			}
		}
	default:
		if !ds.HasField(string(name)) {
			return Series{}, fmt.Errorf("%w: %q", ErrUnknownSeries, name)
		}
		s.Title = fmt.Sprintf("%s vs Time", name)
		base, unit := columns.SplitUnit(string(name))
		s.YLabel = base
		if unit != "" {
			s.YLabel = fmt.Sprintf("%s (%s)", base, unit)
		}
		values, err = ds.Column(string(name))
	}
	if err != nil {
		return Series{}, err
	}

	step := opts.Downsample
	if step < 1 {
		step = 1
	}
	s.Time = performance.Downsample(mask.Select(timeCol), step)
	s.Values = performance.Downsample(mask.Select(values), step)

	if opts.Smooth > 1 {
		window := min(opts.Smooth, config.MaxSmoothWindow)
		s.Smoothed = performance.Smooth(s.Values, window)
	}
	return s, nil
}

// Series builds name from the state's dataset over its padded mask, or the
// core mask when opts.Core is set.
func (s *State) Series(name SeriesName, opts SeriesOptions) (Series, error) {
	if s.Dataset == nil {
		return Series{}, ErrNotLoaded
	}
	if s.Phase == NeedsColumns {
		return Series{}, ErrColumnsRequired
	}
	mask := s.Padded
	if opts.Core {
		mask = s.Core.Mask
	}
	if mask == nil {
		mask = burn.AllTrue(s.Dataset.Len())
	}
	return BuildSeries(s.Dataset, s.Assignment, mask, name, opts)
}

// AvailableSeries lists the derived series the current assignment
// supports. Performance series are included only when in is set, and c*
// additionally needs a throat area.
func (s *State) AvailableSeries(in *performance.Inputs) []SeriesName {
	if s.Dataset == nil || !s.Assignment.Complete() {
		return nil
	}
	a := s.Assignment
	var out []SeriesName
	for _, name := range StandardSeries {
		switch name {
		case SeriesChamberPressure:
			if a.ChamberPressure == "" {
				continue
			}
		case SeriesFuelWeight:
			if a.FuelWeight == "" {
				continue
			}
		case SeriesOxidizerWeight:
			if a.OxidizerWeight == "" {
				continue
			}
		case SeriesOFRatio:
			if !a.HasPropellants() {
				continue
			}
		case SeriesSpecificImpulse, SeriesExhaustVelocity:
			if in == nil {
				continue
			}
		case SeriesCharacteristicVc:
			if in == nil || in.ThroatArea <= 0 || a.ChamberPressure == "" {
				continue
			}
		}
		out = append(out, name)
	}
	return out
}

// ChannelStats holds summary statistics for one channel over the core mask.
type ChannelStats struct {
	Channel string             `json:"channel"`
	Stats   *performance.Stats `json:"stats"`
}

// Statistics summarises total thrust and every assigned column over the
// core mask. It is empty unless the state computed without error.
func (s *State) Statistics() []ChannelStats {
	if s.Phase != Computed || s.Err != nil {
		return nil
	}
	mask := s.Core.Mask
	var out []ChannelStats

	if total, err := s.Dataset.SumColumns(s.Assignment.Thrust); err == nil {
		if st := performance.Describe(mask.Select(total)); st != nil {
			out = append(out, ChannelStats{Channel: "Total Thrust", Stats: st})
		}
	}
	for _, col := range s.Assignment.Columns() {
		if col == s.Assignment.Time {
			continue
		}
		values, err := s.Dataset.Column(col)
		if err != nil {
			continue
		}
		if st := performance.Describe(mask.Select(values)); st != nil {
			out = append(out, ChannelStats{Channel: col, Stats: st})
		}
	}
	return out
}
