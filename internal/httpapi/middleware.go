package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID tags every request with an id, honoring one supplied by a
// proxy, and echoes it back in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// responseMeter captures what the handler wrote for the access log.
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	n, err := m.ResponseWriter.Write(p)
	m.bytes += n
	return n, err
}

// RequestLogger writes one structured line per request after the
// handler returns.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meter := &responseMeter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(meter, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", meter.status,
				"bytes", meter.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if id, ok := GetRequestID(r.Context()); ok {
				attrs = append(attrs, "request_id", id)
			}
			logger.Info("http request", attrs...)
		})
	}
}

// Recoverer converts handler panics into a 500. Stack traces stay out
// of production logs.
func Recoverer(logger *slog.Logger, isProd bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				cause := recover()
				if cause == nil {
					return
				}
				attrs := []any{"panic", cause, "path", r.URL.Path}
				if !isProd {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				logger.Error("panic recovered", attrs...)
				WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
