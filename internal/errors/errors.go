package errors

import (
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code problem extension.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeNotComputed       = "NOT_COMPUTED"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeNothingToPlot     = "NOTHING_TO_PLOT"
	CodeUpgradeFailed     = "WEBSOCKET_UPGRADE_FAILED"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
	CodeSessionLimit      = "SESSION_LIMIT"
	CodeRateLimited       = "RATE_LIMITED"
)

// codeProblemTypes maps error codes onto RFC 7807 problem types.
var codeProblemTypes = map[string]string{
	CodeInvalidRequest:    TypeValidation,
	CodeValidationFailed:  TypeValidation,
	CodeUnsupportedFormat: TypeValidation,
	CodeSessionNotFound:   TypeNotFound,
	CodeNotComputed:       TypeConflict,
	CodePayloadTooLarge:   TypePayloadTooLarge,
	CodeNothingToPlot:     TypeSeriesInputs,
	CodeUpgradeFailed:     TypeWebSocketUpgrade,
	CodeUnavailable:       TypeServiceDown,
	CodeSessionLimit:      TypeServiceDown,
	CodeRateLimited:       TypeRateLimit,
}

// APIError is an error with a fixed HTTP status and machine-readable code.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ProblemType returns the problem type URI for the error code.
func (e *APIError) ProblemType() string {
	if t, ok := codeProblemTypes[e.ErrorCode]; ok {
		return t
	}
	return TypeInternal
}

// WithDetails returns a copy of e carrying details.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

var (
	ErrInvalidRequest    = New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format")
	ErrUnsupportedFormat = New(http.StatusBadRequest, CodeUnsupportedFormat, "Unsupported data file format")
	ErrSessionNotFound   = New(http.StatusNotFound, CodeSessionNotFound, "Analysis session not found")
	ErrNotComputed       = New(http.StatusConflict, CodeNotComputed, "Burn window has not been computed")
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Uploaded file exceeds the size limit")
	ErrNothingToPlot     = New(http.StatusUnprocessableEntity, CodeNothingToPlot, "Nothing to plot")
	ErrUnavailable       = New(http.StatusServiceUnavailable, CodeUnavailable, "Service temporarily unavailable")
	ErrSessionLimit      = New(http.StatusServiceUnavailable, CodeSessionLimit, "Too many active analysis sessions")
	ErrRateLimited       = New(http.StatusTooManyRequests, CodeRateLimited, "Too many requests from this client")
)

// InvalidRequestWithError reports a body that could not be decoded.
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.WithDetails(err.Error())
}

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors lists every rejected field of a request.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation rejects a single field.
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects several fields at once.
func NewValidationErrors(errors []ValidationError) *APIError {
	return New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed").
		WithDetails(ValidationErrors{Errors: errors})
}

// NewValidationError rejects a request without naming a field.
func NewValidationError(message string) *APIError {
	return New(http.StatusBadRequest, CodeValidationFailed, message)
}
