package errors

import (
	"fmt"
)

// ErrorType classifies an AppError for problem rendering.
type ErrorType string

const (
	ErrTypeParsing ErrorType = "PARSING"
	ErrTypeRender  ErrorType = "RENDER"
)

// AppError wraps a lower-level failure with a classification and optional
// fields that become problem extensions.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext sets a field reported alongside the problem.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewParsingError wraps a dataset that could not be decoded.
func NewParsingError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeParsing, Message: message, Cause: cause}
}

// NewRenderError wraps a chart, workbook or PDF failure.
func NewRenderError(message string, cause error) *AppError {
	return &AppError{Type: ErrTypeRender, Message: message, Cause: cause}
}
