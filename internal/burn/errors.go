package burn

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind int

const (
	MissingRequiredColumn ErrorKind = iota + 1
	EmptyWindow
	InvalidRange
	InvalidTarget
	EmptyDataset
)

func (k ErrorKind) String() string {
	switch k {
	case MissingRequiredColumn:
		return "missing_required_column"
	case EmptyWindow:
		return "empty_window"
	case InvalidRange:
		return "invalid_range"
	case InvalidTarget:
		return "invalid_target"
	case EmptyDataset:
		return "empty_dataset"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They carry no reason text.
var (
	ErrMissingRequiredColumn = &EngineError{Kind: MissingRequiredColumn}
	ErrEmptyWindow           = &EngineError{Kind: EmptyWindow}
	ErrInvalidRange          = &EngineError{Kind: InvalidRange}
	ErrInvalidTarget         = &EngineError{Kind: InvalidTarget}
	ErrEmptyDataset          = &EngineError{Kind: EmptyDataset}
)

// EngineError is a recoverable analysis failure. Reason is operator-facing
// and becomes the Error entry of a MetricSet.
type EngineError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func newError(kind ErrorKind, reason string, err error) *EngineError {
	return &EngineError{Kind: kind, Reason: reason, Err: err}
}

func (e *EngineError) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is matches any EngineError of the same kind.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of an engine error, or 0 for anything else.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}

// ReasonOf returns the operator-facing reason for err.
func ReasonOf(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) && ee.Reason != "" {
		return ee.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
