package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yndnr/memcell/internal/telemetry/metric"
)

// StatsFunc reads the keyspace size. Implementations hop onto the event
// loop and must give up when ctx is done.
type StatsFunc func(ctx context.Context) (metric.KeyspaceStats, error)

// Config wires the handler's collaborators. Every field is optional.
type Config struct {
	Logger *slog.Logger
	Stats  StatsFunc
	Ready  func() bool
}

// Handler serves the operational JSON endpoints.
type Handler struct {
	log   *slog.Logger
	stats StatsFunc
	ready func() bool
	mux   *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		log:   cfg.Logger,
		stats: cfg.Stats,
		ready: cfg.Ready,
		mux:   http.NewServeMux(),
	}
	if h.log == nil {
		h.log = slog.Default()
	}

	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /readyz", h.readiness)
	h.mux.HandleFunc("GET /version", h.version)
	h.mux.HandleFunc("GET /stats", h.keyspace)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, data any) {
	h.send(w, r, http.StatusOK, Envelope{Code: CodeOK, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	h.send(w, r, status, Envelope{Code: code, Message: msg})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	if err := Write(w, r, status, env); err != nil {
		h.log.DebugContext(r.Context(), "write response", "error", err)
	}
}
