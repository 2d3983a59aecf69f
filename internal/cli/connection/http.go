package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/memcell/internal/infra/buildinfo"
)

// HTTPClient reads the JSON endpoints of a server's HTTP port.
type HTTPClient struct {
	base string
	hc   *http.Client
}

// NewHTTPClient creates a client for server, a host:port or URL. A
// non-positive timeout means DefaultTimeout.
func NewHTTPClient(server string, timeout time.Duration) *HTTPClient {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		base: strings.TrimRight(server, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the URL requests are made against.
func (c *HTTPClient) BaseURL() string {
	return c.base
}

// APIError is a failed HTTP call. Code and Message come from the
// response envelope when the server sent one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Get fetches path and decodes the envelope's data into target, which may
// be nil.
func (c *HTTPClient) Get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.Name+"-cli/"+buildinfo.Version)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return ParseResponse(resp, target)
}

// ParseResponse decodes an enveloped response into target and closes the
// body. Statuses of 400 and above become an *APIError.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	derr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if derr == nil {
			apiErr.Code, apiErr.Message = env.Code, env.Message
		}
		return apiErr
	}
	if derr != nil {
		return fmt.Errorf("parse response: %w", derr)
	}
	if target == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}
