package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/metrics"
)

const REQUEST_ID_HEADER = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request by withRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID propagates the caller's X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(REQUEST_ID_HEADER)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(REQUEST_ID_HEADER, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// withLooseRouting matches paths the way the dashboard's devices have always
// called them: case-insensitively and with an optional trailing slash.
func withLooseRouting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.ToLower(r.URL.Path)
		if len(path) > 1 {
			path = strings.TrimSuffix(path, "/")
		}

		if path != r.URL.Path {
			r = r.Clone(r.Context())
			r.URL.Path = path
			r.URL.RawPath = ""
		}

		next.ServeHTTP(w, r)
	})
}

// withAccessLog records one structured line and the request metrics per
// request. Metrics are labelled with the matched route template so that
// unknown paths collapse into a single series.
func withAccessLog(logger *slog.Logger, router *mux.Router, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		logger.Info("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.String("duration", duration.String()),
			slog.String("request_id", RequestID(r.Context())),
		)

		metrics.ObserveRequest(routeTemplate(router, r), r.Method, rw.status, duration)
	})
}

func routeTemplate(router *mux.Router, r *http.Request) string {
	var match mux.RouteMatch
	if router.Match(r, &match) && match.Route != nil {
		if template, err := match.Route.GetPathTemplate(); err == nil {
			return template
		}
	}

	return "unmatched"
}

// withRecovery turns a handler panic into the standard 500 body.
func withRecovery(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				logger.Error("Unhandled error",
					"path", r.URL.Path,
					"panic", recovered,
					"stack", string(debug.Stack()),
				)
				writeError(logger, w, storeError(fmt.Errorf("%v", recovered)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader stores the status code so the middleware can log it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
