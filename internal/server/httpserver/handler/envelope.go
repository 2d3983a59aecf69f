package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/memcell/internal/telemetry/logger"
)

// Envelope codes. Anything other than CodeOK is echoed in X-Error-Code.
const (
	CodeOK          = "OK"
	CodeInternal    = "MC-SYS-5000"
	CodeUnsupported = "MC-SYS-5010"
	CodeUnavailable = "MC-SYS-5030"
)

// Envelope wraps every JSON body served on the HTTP port.
type Envelope struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// Write stamps env with the request ID and the current time and sends it.
func Write(w http.ResponseWriter, r *http.Request, status int, env Envelope) error {
	env.RequestID = requestID(r)
	env.Timestamp = time.Now().UnixMilli()

	hdr := w.Header()
	hdr.Set("Content-Type", "application/json")
	if env.Code != CodeOK {
		hdr.Set("X-Error-Code", env.Code)
	}
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(env)
}

// Probe is the payload of /healthz and /readyz.
type Probe struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Keyspace is the payload of /stats.
type Keyspace struct {
	Items           int `json:"items"`
	PendingExpiries int `json:"pending_expiries"`
}

func requestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
