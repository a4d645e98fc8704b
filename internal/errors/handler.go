package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"hotfire/internal/analysis"
	"hotfire/internal/burn"
	"hotfire/internal/columns"
	"hotfire/internal/dataset"
	"hotfire/internal/performance"
)

// Common error types following RFC 7807
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypeConflict        = "/errors/conflict"
	TypePayloadTooLarge = "/errors/payload-too-large"
)

// Domain-specific error types
const (
	TypeMissingColumn    = "/errors/analysis/missing-column"
	TypeEmptyWindow      = "/errors/analysis/empty-window"
	TypeInvalidRange     = "/errors/analysis/invalid-range"
	TypeInvalidTarget    = "/errors/analysis/invalid-target"
	TypeEmptyDataset     = "/errors/analysis/empty-dataset"
	TypeColumnAssignment = "/errors/analysis/column-assignment"
	TypeColumnsRequired  = "/errors/analysis/columns-required"
	TypeNotLoaded        = "/errors/analysis/not-loaded"
	TypeSeriesNotFound   = "/errors/series/not-found"
	TypeSeriesInputs     = "/errors/series/unavailable"
	TypeDataUnreadable   = "/errors/data/unreadable"
	TypeRenderFailed     = "/errors/render/failed"
	TypeWebSocketUpgrade = "/errors/websocket/upgrade-failed"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem.WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var engErr *burn.EngineError
	if errors.As(err, &engErr) {
		return engineErrorToProblem(engErr, path)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErrorToProblem(appErr, path)
	}

	switch {
	case errors.Is(err, dataset.ErrEmptyDataset):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeEmptyDataset,
			"Empty Dataset", burn.ReasonEmptyDataset, path)

	case errors.Is(err, columns.ErrUnknownColumn), errors.Is(err, columns.ErrIncomplete):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeColumnAssignment,
			"Invalid Column Assignment", err.Error(), path)

	case errors.Is(err, analysis.ErrColumnsRequired):
		return NewProblemDetails(http.StatusConflict, TypeColumnsRequired,
			"Columns Required", err.Error(), path)

	case errors.Is(err, analysis.ErrNotLoaded):
		return NewProblemDetails(http.StatusConflict, TypeNotLoaded,
			"No Dataset Loaded", err.Error(), path)

	case errors.Is(err, analysis.ErrInvalidPadding),
		errors.Is(err, performance.ErrInvalidMassFlow),
		errors.Is(err, performance.ErrInvalidThroatArea):
		return NewProblemDetails(http.StatusBadRequest, TypeValidation,
			"Validation Failed", err.Error(), path)

	case errors.Is(err, analysis.ErrUnknownSeries):
		return NewProblemDetails(http.StatusNotFound, TypeSeriesNotFound,
			"Series Not Found", err.Error(), path)

	case errors.Is(err, analysis.ErrSeriesUnavailable),
		errors.Is(err, analysis.ErrInputsRequired),
		errors.Is(err, performance.ErrEmptyRange):
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeSeriesInputs,
			"Series Unavailable", err.Error(), path)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge,
			"Payload Too Large", fmt.Sprintf("The request body exceeds %d bytes", tooLarge.Limit), path)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		path,
	)
}

func engineErrorToProblem(e *burn.EngineError, path string) *ProblemDetails {
	status, problemType, title := http.StatusUnprocessableEntity, TypeInternal, "Analysis Failed"
	switch e.Kind {
	case burn.MissingRequiredColumn:
		problemType, title = TypeMissingColumn, "Missing Required Column"
	case burn.EmptyWindow:
		problemType, title = TypeEmptyWindow, "Empty Burn Window"
	case burn.InvalidRange:
		status, problemType, title = http.StatusBadRequest, TypeInvalidRange, "Invalid Time Range"
	case burn.InvalidTarget:
		status, problemType, title = http.StatusBadRequest, TypeInvalidTarget, "Invalid Target Thrust"
	case burn.EmptyDataset:
		problemType, title = TypeEmptyDataset, "Empty Dataset"
	}

	detail := e.Reason
	if detail == "" {
		detail = e.Error()
	}
	return NewProblemDetails(status, problemType, title, detail, path).
		WithExtension("kind", e.Kind.String())
}

func appErrorToProblem(e *AppError, path string) *ProblemDetails {
	var problem *ProblemDetails
	switch e.Type {
	case ErrTypeParsing:
		problem = NewProblemDetails(http.StatusBadRequest, TypeDataUnreadable, "Unreadable Data File", e.Error(), path)
	case ErrTypeRender:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeRenderFailed, "Rendering Failed", e.Message, path)
	default:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", e.Message, path)
	}
	for k, v := range e.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := apiErr.ProblemType()

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// Recoverer turns handler panics into 500 problems. http.ErrAbortHandler is
// re-raised so the server aborts the response as usual.
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.HandlePanic(w, r, rec)
		}()
		next.ServeHTTP(w, r)
	})
}

// HandlePanic logs the recovered value with its stack and answers 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeValidation,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}
