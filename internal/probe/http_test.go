package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostPort(t *testing.T, server *httptest.Server) (string, int) {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestProbe_HealthyEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()
	host, port := hostPort(t, server)

	result, err := NewHTTPProber().Probe(context.Background(), host, port, "/health", 3*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.True(t, result.Healthy())
	assert.GreaterOrEqual(t, result.Elapsed, time.Duration(0))
	assert.Equal(t, "/health", gotPath)
}

func TestProbe_ErrorStatusIsResultNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	host, port := hostPort(t, server)

	result, err := NewHTTPProber().Probe(context.Background(), host, port, "/health", 3*time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
	assert.False(t, result.Healthy())
}

func TestProbe_TimeoutIsError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	host, port := hostPort(t, server)

	_, err := NewHTTPProber().Probe(context.Background(), host, port, "/health", 50*time.Millisecond)

	assert.Error(t, err)
}

func TestProbe_ConnectionRefusedIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host, port := hostPort(t, server)
	server.Close()

	_, err := NewHTTPProber().Probe(context.Background(), host, port, "/health", time.Second)

	assert.Error(t, err)
}

func TestProbe_RedirectIsNotFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/login", http.StatusFound)
	}))
	defer server.Close()
	host, port := hostPort(t, server)

	result, err := NewHTTPProber().Probe(context.Background(), host, port, "/health", time.Second)

	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, result.StatusCode)
	assert.True(t, result.Healthy())
}
