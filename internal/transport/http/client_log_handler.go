package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "hotfire/internal/errors"
	"hotfire/internal/infrastructure"
	customMiddleware "hotfire/internal/middleware"
)

// ClientLogRequest is a log line forwarded by the browser UI.
type ClientLogRequest struct {
	Level     string                 `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Message   string                 `json:"message" validate:"required,max=2000"`
	SessionID string                 `json:"session_id,omitempty" validate:"omitempty,max=64"`
	Source    string                 `json:"source,omitempty" validate:"max=200"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ClientLogHandler writes browser-side events into the server log so plot
// and upload failures seen by the UI end up next to the request logs.
type ClientLogHandler struct {
	validator    *customMiddleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

func NewClientLogHandler(validator *customMiddleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ClientLogHandler {
	return &ClientLogHandler{
		validator:    validator,
		logger:       infrastructure.WithComponent(logger, "client"),
		errorHandler: errorHandler,
	}
}

// Handle handles POST /api/client-log.
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req ClientLogRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	level := slog.LevelInfo
	if req.Level != "" {
		// validated above, so UnmarshalText cannot fail
		_ = level.UnmarshalText([]byte(req.Level))
	}

	ctx := r.Context()
	attrs := []slog.Attr{slog.String("client_source", req.Source)}
	if req.SessionID != "" {
		ctx = infrastructure.WithSessionID(ctx, req.SessionID)
		attrs = append(attrs, slog.String("session_id", req.SessionID))
	}
	if len(req.Data) > 0 {
		attrs = append(attrs, slog.Any("data", req.Data))
	}
	h.logger.LogAttrs(ctx, level, req.Message, attrs...)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]bool{"accepted": true})
}
