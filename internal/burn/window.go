package burn

import (
	"fmt"
	"math"

	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/dataset"
)

// Operator-facing reasons, shown verbatim as the Error metric.
const (
	ReasonMissingData   = "Missing data"
	ReasonEmptyWindow   = "No data in selected window."
	ReasonInvalidRange  = "Invalid custom splice time range."
	ReasonInvalidTarget = "Target thrust must be a positive number."
	ReasonEmptyDataset  = "Dataset contains no rows."
)

// Mode selects how the core mask is derived.
type Mode interface {
	fmt.Stringer
	validate() error
}

// TargetThrust keeps samples whose summed thrust lies within
// [0.5*Value, 1.5*Value].
type TargetThrust struct {
	Value float64
}

func (t TargetThrust) String() string { return fmt.Sprintf("target_thrust(%g)", t.Value) }

func (t TargetThrust) validate() error {
	if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value <= 0 {
		return newError(InvalidTarget, ReasonInvalidTarget, nil)
	}
	return nil
}

// Bounds returns the inclusive thrust band accepted for this target.
func (t TargetThrust) Bounds() (lower, upper float64) {
	return config.TargetLowerFactor * t.Value, config.TargetUpperFactor * t.Value
}

// CustomRange keeps samples whose time lies within [Start, End].
type CustomRange struct {
	Start float64
	End   float64
}

func (c CustomRange) String() string { return fmt.Sprintf("custom_range(%g, %g)", c.Start, c.End) }

func (c CustomRange) validate() error {
	if math.IsNaN(c.Start) || math.IsNaN(c.End) || c.Start >= c.End {
		return newError(InvalidRange, ReasonInvalidRange, nil)
	}
	return nil
}

// Window is a core mask with its first and last selected index.
type Window struct {
	Mask  Mask
	First int
	Last  int
}

// Fallback returns the all-true window used when no analysis is possible.
func Fallback(n int) Window {
	return Window{Mask: AllTrue(n), First: 0, Last: n - 1}
}

// ComputeCoreMask derives the burn window of ds under mode. Target-thrust
// windows sum a.Thrust per sample; custom ranges read a.Time. Samples
// outside the band between the first and last selected index stay
// unselected.
//
// On any error the returned Window is the all-true fallback of the
// dataset's length, so callers always have something to render.
func ComputeCoreMask(ds *dataset.Dataset, a columns.Assignment, mode Mode) (Window, error) {
	if ds == nil || ds.Len() == 0 {
		return Window{Mask: Mask{}, First: -1, Last: -1}, newError(EmptyDataset, ReasonEmptyDataset, nil)
	}
	n := ds.Len()

	if mode == nil {
		return Fallback(n), newError(InvalidTarget, ReasonInvalidTarget, nil)
	}
	if err := mode.validate(); err != nil {
		return Fallback(n), err
	}

	mask := make(Mask, n)

	switch m := mode.(type) {
	case TargetThrust:
		if len(a.Thrust) == 0 {
			return Fallback(n), newError(MissingRequiredColumn, ReasonMissingData, nil)
		}
		total, err := ds.SumColumns(a.Thrust)
		if err != nil {
			return Fallback(n), newError(MissingRequiredColumn, ReasonMissingData, err)
		}
		lower, upper := m.Bounds()
		for i, v := range total {
			mask[i] = v >= lower && v <= upper
		}
	case CustomRange:
		if a.Time == "" {
			return Fallback(n), newError(MissingRequiredColumn, ReasonMissingData, nil)
		}
		times, err := ds.Column(a.Time)
		if err != nil {
			return Fallback(n), newError(MissingRequiredColumn, ReasonMissingData, err)
		}
		for i, t := range times {
			mask[i] = t >= m.Start && t <= m.End
		}
	default:
		return Fallback(n), newError(InvalidTarget, ReasonInvalidTarget, fmt.Errorf("unsupported mode %T", mode))
	}

	first, last, ok := mask.Span()
	if !ok {
		return Fallback(n), newError(EmptyWindow, ReasonEmptyWindow, nil)
	}

	return Window{Mask: mask, First: first, Last: last}, nil
}
