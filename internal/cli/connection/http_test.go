package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_BaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11280", NewHTTPClient("localhost:11280", 0).BaseURL())
	assert.Equal(t, "https://cache.example:443", NewHTTPClient("https://cache.example:443/", 0).BaseURL())
}

func TestHTTPClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.UserAgent(), "memcell-cli/"))
		switch r.URL.Path {
		case "/stats":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"code":"OK","message":"Success","data":{"items":4,"pending_expiries":1}}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"code":"MC-SYS-5030","message":"not ready"}`))
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)

	var stats struct {
		Items           int `json:"items"`
		PendingExpiries int `json:"pending_expiries"`
	}
	require.NoError(t, c.Get(context.Background(), "/stats", &stats))
	assert.Equal(t, 4, stats.Items)
	assert.Equal(t, 1, stats.PendingExpiries)

	err := c.Get(context.Background(), "/readyz", nil)
	assert.EqualError(t, err, "[MC-SYS-5030] not ready")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "MC-SYS-5030", apiErr.Code)
}

func TestParseResponse_BadStatusWithoutEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	_, _ = rec.WriteString("upstream down")

	err := ParseResponse(rec.Result(), nil)
	assert.EqualError(t, err, "request failed with status 502")
}
