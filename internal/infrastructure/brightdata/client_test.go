package brightdata

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomscout/backend/internal/domain"
)

func testConfig(baseURL string) Config {
	return Config{
		APIKey:         "test-key",
		Zone:           "serp_zone",
		BaseURL:        baseURL,
		SearchTimeout:  2 * time.Second,
		FetchTimeout:   2 * time.Second,
		DirectFallback: true,
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{})

	assert.Equal(t, defaultBaseURL, client.config.BaseURL)
	assert.Equal(t, "kw", client.config.Country)
	assert.Equal(t, "en", client.config.Language)
	assert.Equal(t, 45*time.Second, client.config.SearchTimeout)
	assert.Equal(t, 20*time.Second, client.config.FetchTimeout)
	assert.False(t, client.Configured())
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req unlockerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "serp_zone", req.Zone)
		assert.Equal(t, "json", req.Format)
		assert.Contains(t, req.URL, "https://www.google.com/search?")
		assert.Contains(t, req.URL, "q=linen+sofa+Kuwait")
		assert.Contains(t, req.URL, "gl=kw")
		assert.Contains(t, req.URL, "hl=en")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"body":"{\"organic\":[{\"title\":\"Linen Sofa\",\"link\":\"https://store-x.com/p/1\",\"description\":\"KD 99\"}]}"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	results, err := client.Search(context.Background(), "linen sofa Kuwait")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Linen Sofa", results[0].Title)
	assert.Equal(t, "KD 99", results[0].Snippet)
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error is transient", http.StatusBadGateway, "", domain.ErrUpstreamUnavailable},
		{"throttling is transient", http.StatusTooManyRequests, "", domain.ErrUpstreamUnavailable},
		{"auth failure is a rejection", http.StatusUnauthorized, "bad key", domain.ErrUpstreamRejected},
		{"unparseable body", http.StatusOK, "<html>blocked</html>", domain.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewClient(testConfig(server.URL)).Search(context.Background(), "q")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.SearchTimeout = 20 * time.Millisecond

	_, err := NewClient(cfg).Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestSearch_CircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	for i := 0; i < 5; i++ {
		_, err := client.Search(context.Background(), "q")
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	}

	_, err := client.Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, int32(5), hits.Load())
}

func TestSearch_RejectionsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	for i := 0; i < 8; i++ {
		_, err := client.Search(context.Background(), "q")
		require.ErrorIs(t, err, domain.ErrUpstreamRejected)
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	_, err := NewClient(Config{}).Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrUpstreamRejected)
}

func TestFetch_ViaUnlocker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req unlockerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "raw", req.Format)
		assert.Equal(t, "https://store-x.com/p/1", req.URL)
		_, _ = io.WriteString(w, "<html>product</html>")
	}))
	defer server.Close()

	html, err := NewClient(testConfig(server.URL)).Fetch(context.Background(), "https://store-x.com/p/1")
	require.NoError(t, err)
	assert.Equal(t, "<html>product</html>", html)
}

func TestFetch_DirectFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "Mozilla/5.0") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "<html>direct</html>")
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	html, err := client.Fetch(context.Background(), server.URL+"/p/1")

	require.NoError(t, err)
	assert.Equal(t, "<html>direct</html>", html)
}

func TestFetch_NoFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.DirectFallback = false

	_, err := NewClient(cfg).Fetch(context.Background(), server.URL+"/p/1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
