package edge

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxRequestIDLen = 128

// requestID keeps a sane inbound X-Request-Id or assigns a fresh one, so the
// id reaches whichever origin handles the request.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if r.URL.Path == HealthPath {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "edge request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", routeOf(r),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", r.Header.Get(RequestIDHeader),
			)
		})
	}
}

func routeOf(r *http.Request) string {
	switch {
	case r.URL.Path == HealthPath && r.Method == http.MethodGet:
		return "health"
	case strings.HasPrefix(r.URL.Path, PublicPrefix):
		return "public"
	default:
		return "forward"
	}
}
