package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/session"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// SecureLogger returns a middleware for logging HTTP requests with search
// text and other personal data redacted from the query string.
func SecureLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The session id is only known once the session middleware has
			// run, so capture it from the request the inner handler sees.
			var sessionID string
			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), sessionProbeKey{}, &sessionID)))

			path := r.URL.Path
			if q := pkglogger.SanitizeQuery(r.URL.RawQuery); q != "" {
				path += "?" + q
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", wrapped.Status()),
				slog.Int64("bytes", int64(wrapped.BytesWritten())),
				slog.String("duration", time.Since(start).String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if sessionID != "" {
				attrs = append(attrs, slog.String("session_id", sessionID))
			}

			logger.LogAttrs(context.Background(), slog.LevelInfo, "http_request", attrs...)
		})
	}
}

type sessionProbeKey struct{}

// RecordSession reports the resolved session id back to SecureLogger.
// It must run after the session middleware.
func RecordSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if probe, ok := r.Context().Value(sessionProbeKey{}).(*string); ok {
			*probe = session.IDFromContext(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}
