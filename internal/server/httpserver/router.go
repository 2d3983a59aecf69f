package httpserver

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/yndnr/memcell/internal/server/httpserver/handler"
	"github.com/yndnr/memcell/internal/telemetry/logger"
)

// RouterConfig wires the HTTP routes. The zero value serves the JSON
// endpoints without metrics, stats or request logging.
type RouterConfig struct {
	// Logger receives request and panic logs. Nil discards.
	Logger *slog.Logger

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Stats backs /stats.
	Stats handler.StatsFunc

	// Ready backs /readyz.
	Ready func() bool

	// Audit logs every request.
	Audit bool
}

// NewRouter builds the handler for the HTTP port.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = &RouterConfig{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = slog.New(logger.WithContextIDs(log.Handler()))

	api := handler.New(handler.Config{Logger: log, Stats: cfg.Stats, Ready: cfg.Ready})

	// Recover sits outside RequestID so a panic in the ID generator is caught.
	mws := []Middleware{Recover(log), RequestID()}
	if cfg.Audit {
		mws = append(mws, Audit(log))
	}

	mux := http.NewServeMux()
	mux.Handle("/", Chain(api, mws...))
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, mws...))
	}
	return mux
}
