package identity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextUserAgentFromPool(t *testing.T) {
	r := NewRotator(Options{})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		ua := r.NextUserAgent()
		assert.Contains(t, userAgents, ua)
		seen[ua] = true
	}
	// Uniform sampling over 200 draws should hit more than one UA.
	assert.Greater(t, len(seen), 1)
}

func TestStealthHeadersCarryUserAgent(t *testing.T) {
	r := NewRotator(Options{})

	h := r.StealthHeaders()
	assert.Contains(t, userAgents, h["User-Agent"])
	assert.Equal(t, "en-US,en;q=0.5", h["Accept-Language"])
	assert.Equal(t, "1", h["DNT"])
}

func TestNormalizeProxy(t *testing.T) {
	p, ok := normalizeProxy("10.0.0.1:8080")
	require.True(t, ok)
	assert.Equal(t, "http://10.0.0.1:8080", p)

	_, ok = normalizeProxy("not a proxy")
	assert.False(t, ok)

	_, ok = normalizeProxy("10.0.0.1:eighty")
	assert.False(t, ok)
}

func TestNextWorkingProxyReturnsFirstResponder(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "10.0.0.%d:8080\n", i+1)
		}
	}))
	defer source.Close()

	r := NewRotator(Options{
		SourceURLs:   []string{source.URL},
		SampleSize:   5,
		ProbeTimeout: time.Second,
	})
	r.probe = func(_ context.Context, proxy string) bool {
		return proxy == "http://10.0.0.3:8080"
	}

	proxy, ok := r.NextWorkingProxy(context.Background())
	require.True(t, ok)
	assert.Equal(t, "http://10.0.0.3:8080", proxy)
}

func TestNextWorkingProxyFallsBackToNone(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "10.0.0.1:8080")
	}))
	defer source.Close()

	r := NewRotator(Options{SourceURLs: []string{source.URL}})
	r.probe = func(context.Context, string) bool { return false }

	proxy, ok := r.NextWorkingProxy(context.Background())
	assert.False(t, ok)
	assert.Empty(t, proxy)

	// The lease is still usable proxy-less.
	lease := r.NextLease(context.Background())
	assert.Empty(t, lease.Proxy)
	assert.NotEmpty(t, lease.UserAgent)
	assert.NotEmpty(t, lease.Headers)
}

func TestRefreshIsTimeGated(t *testing.T) {
	var fetches int
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches++
		fmt.Fprintln(w, "10.0.0.1:8080")
	}))
	defer source.Close()

	r := NewRotator(Options{
		SourceURLs:      []string{source.URL},
		RefreshInterval: time.Hour,
	})
	r.probe = func(context.Context, string) bool { return true }

	for i := 0; i < 3; i++ {
		_, ok := r.NextWorkingProxy(context.Background())
		require.True(t, ok)
	}
	assert.Equal(t, 1, fetches)
}

func TestFailedRefreshDegradesToNoProxy(t *testing.T) {
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer source.Close()

	r := NewRotator(Options{SourceURLs: []string{source.URL}})

	proxy, ok := r.NextWorkingProxy(context.Background())
	assert.False(t, ok)
	assert.Empty(t, proxy)
}
