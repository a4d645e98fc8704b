package services

import "errors"

// Analysis service errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("analysis session not found")
	ErrSessionLimit    = errors.New("too many active analysis sessions")

	// Upload errors
	ErrUnsupportedFormat = errors.New("unsupported data file format")
	ErrPayloadTooLarge   = errors.New("uploaded file exceeds the size limit")
	ErrUnreadableData    = errors.New("data file could not be parsed")

	// Export errors
	ErrRendererUnavailable = errors.New("pdf renderer not configured")

	// General errors
	ErrServiceClosed = errors.New("analysis service is shut down")
)

// RenderError reports an output (plot, workbook, report) that failed to
// render.
type RenderError struct {
	Output string
	Err    error
}

func (e *RenderError) Error() string {
	return "render " + e.Output + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
