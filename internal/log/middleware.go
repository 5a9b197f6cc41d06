package log

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type contextKey struct{}

// FromContext returns the request-scoped logger, or a default one when
// no middleware installed it.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return New(DefaultConfig())
}

// RequestLogger logs one line per request with method, path, status and
// duration, and places a request-scoped logger in the context.
func RequestLogger(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				reqLogger = logger.With(FieldRequestID, reqID)
			}
			ctx := context.WithValue(r.Context(), contextKey{}, reqLogger)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("request completed",
				FieldMethod, r.Method,
				FieldPath, r.URL.Path,
				FieldStatusCode, ww.Status(),
				FieldDuration, time.Since(start).Milliseconds(),
			)
		})
	}
}
