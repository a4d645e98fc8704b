package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"

	"hotfire/internal/infrastructure"
)

// RequestID tags the request with an id taken from X-Request-ID or freshly
// generated. The id is stored under chi's key and as the logging trace id,
// and echoed back in the response header. Mount it first.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(chimw.RequestIDHeader)
		if id == "" {
			id = infrastructure.NewTraceID()
		}
		w.Header().Set(chimw.RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		traceID := id
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		next.ServeHTTP(w, r.WithContext(infrastructure.WithTraceID(ctx, traceID)))
	})
}

// RealIP rewrites RemoteAddr from proxy headers.
func RealIP(next http.Handler) http.Handler {
	return chimw.RealIP(next)
}
