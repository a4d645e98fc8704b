package analysis

import (
	"sync"
	"time"

	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/dataset"
)

// Trigger names the input change behind a transition.
type Trigger string

const (
	TriggerLoad    Trigger = "load"
	TriggerColumns Trigger = "columns"
	TriggerWindow  Trigger = "window"
	TriggerPadding Trigger = "padding"
)

// Observer is called after every successful swap, outside the session lock.
type Observer func(trigger Trigger, st *State)

// Session holds the current State of one analysis. Readers get the
// snapshot current at the time of the call; writers replace it.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	state      *State
	lastAccess time.Time
	observers  map[int]Observer
	nextObs    int
}

// NewSession returns a session in the Unloaded phase.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		CreatedAt:  now,
		state:      Empty(),
		lastAccess: now,
		observers:  make(map[int]Observer),
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() *State {
	s.mu.Lock()
	s.lastAccess = time.Now()
	st := s.state
	s.mu.Unlock()
	return st
}

// LastAccess reports when the session was last read or written.
func (s *Session) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (s *Session) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Load replaces the dataset and resolves its columns.
func (s *Session) Load(ds *dataset.Dataset) (*State, error) {
	return s.apply(TriggerLoad, func(cur *State) (*State, error) { return cur.Load(ds) })
}

// AssignColumns applies a manual column assignment.
func (s *Session) AssignColumns(a columns.Assignment) (*State, error) {
	return s.apply(TriggerColumns, func(cur *State) (*State, error) { return cur.WithColumns(a) })
}

// SetMode selects target-thrust or custom-range windowing.
func (s *Session) SetMode(mode burn.Mode) (*State, error) {
	return s.apply(TriggerWindow, func(cur *State) (*State, error) { return cur.WithMode(mode) })
}

// SetPadding changes the padded mask fraction.
func (s *Session) SetPadding(fraction float64) (*State, error) {
	return s.apply(TriggerPadding, func(cur *State) (*State, error) { return cur.WithPadding(fraction) })
}

func (s *Session) apply(trigger Trigger, fn func(*State) (*State, error)) (*State, error) {
	s.mu.Lock()
	next, err := fn(s.state)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = next
	s.lastAccess = time.Now()
	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o(trigger, next)
	}
	return next, nil
}
