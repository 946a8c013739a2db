package linkcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joedrozd/aiamazonseo/internal/ratelimit"
)

func newTestChecker() *Checker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agents := ratelimit.NewAgentPool([]string{"test-agent"})
	return NewChecker(5*time.Second, agents, "https://www.amazon.com", "cyberheroes-20", logger)
}

func TestCheckHealthyLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker().Check(context.Background(), server.URL+"/dp/B0863TXGM3")
	assert.True(t, result.OK)
	assert.Equal(t, "OK", result.Status)
	assert.Equal(t, "B0863TXGM3", result.ASIN)
	assert.Empty(t, result.Suggested)
}

func TestCheckBrokenLinkSuggestsCanonicalURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	result := newTestChecker().Check(context.Background(), server.URL+"/dp/B0863TXGM3?ref=stale")
	assert.False(t, result.OK)
	assert.Equal(t, "404 Not Found", result.Status)
	assert.Equal(t, "https://www.amazon.com/dp/B0863TXGM3?tag=cyberheroes-20", result.Suggested)
}

func TestCheckFallsBackToGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestChecker().Check(context.Background(), server.URL+"/dp/B0863TXGM3")
	assert.True(t, result.OK)
	assert.Equal(t, "OK", result.Status)
}

func TestCheckBrokenLinkWithoutASIN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	result := newTestChecker().Check(context.Background(), server.URL+"/gp/item/42")
	assert.False(t, result.OK)
	assert.Empty(t, result.ASIN)
	assert.Empty(t, result.Suggested)
}

func TestCheckAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dp/B0000000AA" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/dp/B0863TXGM3",
		server.URL + "/dp/B0000000AA",
	}

	results := newTestChecker().CheckAll(context.Background(), urls, ratelimit.None{})
	require.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
}

func TestCheckAllStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestChecker().CheckAll(ctx, []string{"http://example.com"}, ratelimit.None{})
	assert.Empty(t, results)
}
