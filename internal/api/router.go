package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Metrics bool
}

// NewRouter wires the API routes and wraps them in the middleware chain:
// request id, loose path matching, access log, panic recovery, CORS.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/data/terbaru", h.Latest).Methods(http.MethodGet)
	r.HandleFunc("/api/data/historis", h.Historical).Methods(http.MethodGet)
	r.HandleFunc("/api/data/statistik", h.Statistics).Methods(http.MethodGet)
	r.HandleFunc("/api/data", h.InsertReading).Methods(http.MethodPost)
	r.HandleFunc("/api/kontrol/status", h.ControlStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/kontrol", h.PostControl).Methods(http.MethodPost)

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.NotFound)

	logger := h.logger()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", REQUEST_ID_HEADER}),
		handlers.ExposedHeaders([]string{REQUEST_ID_HEADER}),
	)

	return withRequestID(withLooseRouting(withAccessLog(logger, r, withRecovery(logger, cors(r)))))
}
