package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/config"
	"hotfire/internal/dataset"
)

var (
	// ErrNotLoaded is returned by transitions that need a dataset.
	ErrNotLoaded = errors.New("no dataset loaded")
	// ErrColumnsRequired is returned when time or thrust is still unassigned.
	ErrColumnsRequired = errors.New("time and thrust columns must be assigned first")
	// ErrInvalidPadding is returned for a padding fraction outside [0, 3].
	ErrInvalidPadding = errors.New("padding fraction must be between 0 and 3")
)

// Phase is the lifecycle position of a State.
type Phase int

const (
	Unloaded Phase = iota
	NeedsColumns
	Ready
	Computed
)

func (p Phase) String() string {
	switch p {
	case Unloaded:
		return "unloaded"
	case NeedsColumns:
		return "needs_columns"
	case Ready:
		return "ready"
	case Computed:
		return "computed"
	default:
		return "unknown"
	}
}

// State is one immutable analysis snapshot. Fields must not be modified
// after a State is returned.
type State struct {
	Phase      Phase
	Dataset    *dataset.Dataset
	Assignment columns.Assignment
	// ManualColumns is true once the operator replaced the heuristic result.
	ManualColumns bool

	Mode    burn.Mode
	Padding float64

	Core    burn.Window
	Padded  burn.Mask
	Metrics burn.MetricSet
	// Err is the engine error of the last recomputation, if any.
	Err error

	Version   uint64
	UpdatedAt time.Time
}

// Empty returns the initial Unloaded state.
func Empty() *State {
	return &State{Phase: Unloaded, UpdatedAt: time.Now()}
}

// Failed reports whether the last recomputation ended in an engine error.
func (s *State) Failed() bool {
	return s.Phase == Computed && s.Err != nil
}

// ErrorKind returns the engine error kind, or 0 when the state is healthy.
func (s *State) ErrorKind() burn.ErrorKind {
	return burn.KindOf(s.Err)
}

func (s *State) next() *State {
	n := *s
	n.Version = s.Version + 1
	n.UpdatedAt = time.Now()
	return &n
}

// Load starts a new analysis for ds. Columns are resolved heuristically;
// padding carries over from the receiver but the window mode does not.
func (s *State) Load(ds *dataset.Dataset) (*State, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, burn.ErrEmptyDataset
	}

	a, needsManual := columns.Resolve(ds.Fields())

	n := s.next()
	n.Dataset = ds
	n.Assignment = a
	n.ManualColumns = false
	n.Mode = nil
	n.Core = burn.Window{}
	n.Padded = nil
	n.Metrics = burn.MetricSet{}
	n.Err = nil

	if needsManual {
		n.Phase = NeedsColumns
	} else {
		n.Phase = Ready
	}
	return n, nil
}

// WithColumns replaces the column assignment wholesale. The assignment is
// validated against the dataset; a failed validation leaves no new state.
func (s *State) WithColumns(a columns.Assignment) (*State, error) {
	if s.Dataset == nil {
		return nil, ErrNotLoaded
	}
	assigned, err := columns.Manual(s.Dataset.Fields(), a)
	if err != nil {
		return nil, err
	}

	n := s.next()
	n.Assignment = assigned
	n.ManualColumns = true
	if n.Mode == nil {
		n.Phase = Ready
		return n, nil
	}
	return recompute(n), nil
}

// WithMode sets the window mode and recomputes.
func (s *State) WithMode(mode burn.Mode) (*State, error) {
	if s.Dataset == nil {
		return nil, ErrNotLoaded
	}
	if s.Phase == NeedsColumns {
		return nil, ErrColumnsRequired
	}
	if mode == nil {
		return nil, fmt.Errorf("window mode is required")
	}

	n := s.next()
	n.Mode = mode
	return recompute(n), nil
}

// WithPadding sets the padding fraction. A computed state is recomputed.
func (s *State) WithPadding(fraction float64) (*State, error) {
	if math.IsNaN(fraction) || fraction < config.MinPaddingFraction || fraction > config.MaxPaddingFraction {
		return nil, ErrInvalidPadding
	}

	n := s.next()
	n.Padding = fraction
	if n.Phase != Computed {
		return n, nil
	}
	return recompute(n), nil
}

// recompute runs the engine on n in place. n must be a fresh copy.
func recompute(n *State) *State {
	n.Phase = Computed
	ds := n.Dataset

	w, err := burn.ComputeCoreMask(ds, n.Assignment, n.Mode)
	if err != nil {
		return fail(n, err)
	}
	metrics, err := burn.ComputeMetrics(ds, n.Assignment, w.Mask)
	if err != nil {
		return fail(n, err)
	}

	n.Core = w
	n.Padded = burn.ComputePaddedMask(w.Mask, n.Padding)
	n.Metrics = metrics
	n.Err = nil
	return n
}

// fail applies the uniform error rule: both masks fall back to all-true and
// the metrics carry only the reason.
func fail(n *State, err error) *State {
	size := 0
	if n.Dataset != nil {
		size = n.Dataset.Len()
	}
	n.Core = burn.Fallback(size)
	n.Padded = burn.AllTrue(size)
	n.Metrics = burn.ErrorMetrics(burn.ReasonOf(err))
	n.Err = err
	return n
}
