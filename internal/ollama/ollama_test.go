package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomventa/mdsql/internal/config"
	"github.com/tomventa/mdsql/internal/types"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return New(config.OllamaConfig{URL: ts.URL + "/", Model: "llama3.2", Temperature: 0.2})
}

func TestGenerate(t *testing.T) {
	var got types.OllamaRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(types.OllamaResponse{Response: "```sql\nSELECT 1\n```", Done: true})
	})

	out, err := c.Generate(context.Background(), "count users")
	require.NoError(t, err)

	assert.Equal(t, "```sql\nSELECT 1\n```", out)
	assert.Equal(t, c.Model(), got.Model)
	assert.Equal(t, "count users", got.Prompt)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
}

func TestGenerate_HTTPError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'llama3.2' not found"}`))
	})

	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerate_BadBody(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.Generate(context.Background(), "x")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	ok := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	assert.NoError(t, ok.Ping(context.Background()))

	down := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
}
