// Package vikunja is the thin HTTP client for the upstream Vikunja API.
// Methods return untyped decoded JSON; shaping, sanitization, and error
// classification happen in the layers above (internal/sanitize,
// internal/apierr). Failures carry the upstream HTTP status so callers
// can classify them.
package vikunja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jundoHeo/vikunja-mcp/internal/session"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPError is a non-2xx upstream response. It keeps the status and the
// upstream message so classification can map it onto the taxonomy.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("vikunja api returned status %d", e.Status)
}

// HTTPStatus returns the upstream status code.
func (e *HTTPError) HTTPStatus() int { return e.Status }

// Client calls the Vikunja REST API using the configured session.
type Client struct {
	sessions session.Provider
	http     *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom
// transports).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client over the given session provider.
func NewClient(sessions session.Provider, opts ...Option) *Client {
	c := &Client{
		sessions: sessions,
		http:     &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoRaw performs a request against the API and returns the status code
// and raw body. This is the primitive for endpoints outside the typed
// surface; it does not treat non-2xx statuses as errors.
func (c *Client) DoRaw(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	s := c.sessions.Session()
	url := strings.TrimRight(s.APIURL, "/") + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request %s %s: %w", method, path, err)
	}
	if s.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response for %s %s: %w", method, path, err)
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Msg("vikunja api call")
	return resp.StatusCode, respBody, nil
}

// do performs a request and decodes the JSON response. Non-2xx statuses
// become *HTTPError with the upstream message when one is present.
func (c *Client) do(ctx context.Context, method, path string, payload any) (any, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body for %s %s: %w", method, path, err)
		}
	}

	status, respBody, err := c.DoRaw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &HTTPError{Status: status, Message: upstreamMessage(respBody)}
	}
	if len(respBody) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response for %s %s: %w", method, path, err)
	}
	return decoded, nil
}

// upstreamMessage pulls the message field out of a Vikunja error body
// ({"code": ..., "message": "..."}); falls back to the raw body text.
func upstreamMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}

// asList coerces a decoded response into a list; a null body yields an
// empty list (Vikunja returns null for empty collections).
func asList(v any) []any {
	if v == nil {
		return []any{}
	}
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}
