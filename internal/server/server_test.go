package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jundoHeo/vikunja-mcp/internal/requestctx"
)

// stubMCP records the caller it saw and answers with a fixed body.
type stubMCP struct {
	caller string
}

func (m *stubMCP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.caller = requestctx.Caller(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
}

func newTestServer(t *testing.T, apiKeys map[string]string, opts ...Option) (*httptest.Server, *stubMCP) {
	t.Helper()
	mcp := &stubMCP{}
	srv := NewServer(mcp, apiKeys, "test", opts...)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, mcp
}

func postMCP(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/mcp", nil)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthIsUnauthenticated(t *testing.T) {
	ts, _ := newTestServer(t, map[string]string{"secret": "ci"})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestMCPRequiresAPIKey(t *testing.T) {
	ts, _ := newTestServer(t, map[string]string{"secret": "ci"})

	resp := postMCP(t, ts.URL, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMCPRejectsWrongKey(t *testing.T) {
	ts, _ := newTestServer(t, map[string]string{"secret": "ci"})

	resp := postMCP(t, ts.URL, http.Header{"X-API-Key": []string{"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMCPAcceptsHeaderKey(t *testing.T) {
	ts, mcp := newTestServer(t, map[string]string{"secret": "ci"})

	resp := postMCP(t, ts.URL, http.Header{"X-API-Key": []string{"secret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ci", mcp.caller)
}

func TestMCPAcceptsBearerKey(t *testing.T) {
	ts, mcp := newTestServer(t, map[string]string{"secret": "ci"})

	resp := postMCP(t, ts.URL, http.Header{"Authorization": []string{"Bearer secret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ci", mcp.caller)
}

func TestEmptyKeysDisablesAuth(t *testing.T) {
	ts, mcp := newTestServer(t, nil)

	resp := postMCP(t, ts.URL, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "local", mcp.caller)
}

func TestRateLimitReturns429(t *testing.T) {
	// 1 request per minute, burst 1: second request must be limited.
	ts, _ := newTestServer(t, nil, WithRateLimiter(NewRateLimiter(1, 1)))

	resp := postMCP(t, ts.URL, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postMCP(t, ts.URL, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, map[string]string{"secret": "ci"})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	// A different caller has its own bucket.
	assert.True(t, rl.Allow("b"))
}

func TestRateLimiterGlobal(t *testing.T) {
	rl := NewRateLimiter(1, 100)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("b"))
}
