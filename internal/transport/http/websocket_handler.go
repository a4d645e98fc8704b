package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"hotfire/internal/analysis"
	"hotfire/internal/config"
	"hotfire/internal/infrastructure"
	"hotfire/internal/services"
	ws "hotfire/internal/websocket"

	apierrors "hotfire/internal/errors"
)

// SnapshotTrigger labels the state message sent right after connecting.
const SnapshotTrigger = "snapshot"

// StateSource resolves the current snapshot of a session.
type StateSource interface {
	State(ctx context.Context, id string) (*analysis.State, error)
}

// WebSocketHandler streams session state changes to browsers
type WebSocketHandler struct {
	states         StateSource
	hub            *ws.Hub
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewWebSocketHandler creates a websocket handler backed by hub
func NewWebSocketHandler(states StateSource, hub *ws.Hub, cfg *config.Config, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		states:         states,
		hub:            hub,
		allowedOrigins: make(map[string]bool, len(cfg.Security.AllowedOrigins)),
		logger:         logger.With(slog.String("handler", "websocket")),
		errorHandler:   errorHandler,
	}
	for _, o := range cfg.Security.AllowedOrigins {
		h.allowedOrigins[o] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.errorHandler.HandleError(w, r, apierrors.New(status, apierrors.CodeUpgradeFailed, "WebSocket upgrade failed").WithDetails(reason.Error()))
		},
	}
	return h
}

// checkOrigin allows same-host pages, tools without an Origin header and
// the configured origins.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigins[origin] || h.allowedOrigins["*"] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// Stream handles GET /api/sessions/{id}/ws
func (h *WebSocketHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	st, err := h.states.State(ctx, id)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	traceID := infrastructure.GetTraceID(ctx)
	if traceID == "" {
		traceID = middleware.GetReqID(ctx)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote the response
		return
	}

	initial := ws.NewMessage(ws.TypeState, id, services.NewStateEvent(id, SnapshotTrigger, st), traceID)
	client := ws.ServeWS(h.hub, conn, id, traceID, &initial, h.logger)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("session_id", id),
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}
