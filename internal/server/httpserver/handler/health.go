package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/memcell/internal/infra/buildinfo"
)

// statsTimeout bounds how long /stats waits on a busy event loop.
const statsTimeout = 2 * time.Second

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// GET /healthz answers as long as the process serves HTTP.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, Probe{Status: "healthy", Time: now()})
}

// GET /readyz fails once the cache listener is gone.
func (h *Handler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		h.fail(w, r, http.StatusServiceUnavailable, CodeUnavailable, "not ready")
		return
	}
	h.ok(w, r, Probe{Status: "ready", Time: now()})
}

func (h *Handler) version(w http.ResponseWriter, r *http.Request) {
	h.ok(w, r, buildinfo.Get())
}

func (h *Handler) keyspace(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		h.fail(w, r, http.StatusNotImplemented, CodeUnsupported, "stats not available")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), statsTimeout)
	defer cancel()

	st, err := h.stats(ctx)
	if err != nil {
		h.log.WarnContext(r.Context(), "stats unavailable", "error", err)
		h.fail(w, r, http.StatusServiceUnavailable, CodeUnavailable, "stats unavailable")
		return
	}
	h.ok(w, r, Keyspace{Items: st.Items, PendingExpiries: st.PendingExpiries})
}
