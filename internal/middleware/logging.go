package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"precinct/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func newResponseWriter(w http.ResponseWriter, captureBody bool) *responseWriter {
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	if captureBody {
		rw.body = &bytes.Buffer{}
	}
	return rw
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs all HTTP requests with level-based detail and feeds
// the request counters of m
//
// Log levels:
// - INFO: Every request with Remote-IP, User-Agent, HTTP-Method, and Path
// - DEBUG: Additionally logs Request-Body, Response-Body, and all Query-Parameters
// - WARN: Only failed requests (status 4xx)
// - ERROR: Only errors (status 5xx)
func LoggingMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

			var requestBody []byte
			if debug && r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			}

			wrapped := newResponseWriter(w, debug)

			if debug {
				attrs := []any{
					"remote_ip", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"method", r.Method,
					"path", r.URL.Path,
				}
				if query := r.URL.Query(); len(query) > 0 {
					attrs = append(attrs, "query_params", map[string][]string(query))
				}
				// Login and registration bodies carry passwords.
				if len(requestBody) > 0 && !sensitivePath(r.URL.Path) {
					attrs = append(attrs, "request_body", string(requestBody))
				}
				slog.Debug("Incoming request", attrs...)
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			m.ObserveHTTP(r.Method, wrapped.statusCode, duration)

			var logLevel slog.Level
			var logMessage string
			switch {
			case wrapped.statusCode >= 500:
				logLevel = slog.LevelError
				logMessage = "Request failed with error"
			case wrapped.statusCode >= 400:
				logLevel = slog.LevelWarn
				logMessage = "Request failed"
			default:
				logLevel = slog.LevelInfo
				logMessage = "Request completed"
			}

			attrs := []any{
				"remote_ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", duration.Milliseconds(),
			}
			if userID, ok := GetUserID(r); ok {
				attrs = append(attrs, "user_id", userID)
			}
			if debug && wrapped.body.Len() > 0 {
				attrs = append(attrs, "response_body", wrapped.body.String())
			}

			slog.Log(r.Context(), logLevel, logMessage, attrs...)
		})
	}
}

func sensitivePath(path string) bool {
	switch path {
	case "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/users":
		return true
	}
	return false
}
