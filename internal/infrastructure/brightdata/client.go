package brightdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/roomscout/backend/internal/domain"
)

const (
	defaultBaseURL = "https://api.brightdata.com/request"
	browserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodyBytes   = 8 << 20
)

// Config holds configuration for the BrightData client
type Config struct {
	APIKey         string
	Zone           string
	BaseURL        string
	Country        string // Google "gl" parameter
	Language       string // Google "hl" parameter
	SearchTimeout  time.Duration
	FetchTimeout   time.Duration
	DirectFallback bool // fetch pages directly when the unlocker fails
}

// unlockerRequest is the body of a BrightData request API call
type unlockerRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Client searches Google and fetches product pages through the BrightData
// unlocker. It implements domain.SearchProvider and domain.PageFetcher.
type Client struct {
	httpClient *http.Client
	config     Config
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates a new BrightData client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Country == "" {
		config.Country = "kw"
	}
	if config.Language == "" {
		config.Language = "en"
	}
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = 45 * time.Second
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 20 * time.Second
	}

	logger := log.With().Str("component", "brightdata").Logger()

	settings := gobreaker.Settings{
		Name:        "brightdata-search",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only upstream outages count against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrUpstreamUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Client{
		httpClient: &http.Client{},
		config:     config,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Configured reports whether an API key and zone are set
func (c *Client) Configured() bool {
	return c.config.APIKey != "" && c.config.Zone != ""
}

// Search runs a Google search for query and returns its organic results
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("%w: search api key or zone not configured", domain.ErrUpstreamRejected)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.search(ctx, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", domain.ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}

	results := out.([]domain.SearchResult)
	c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("search complete")
	return results, nil
}

func (c *Client) search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.SearchTimeout)
	defer cancel()

	body, err := c.unlock(ctx, c.searchURL(query), "json")
	if err != nil {
		return nil, err
	}

	return ParseSearchResponse(body)
}

// searchURL builds the Google results URL for query
func (c *Client) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("gl", c.config.Country)
	params.Set("hl", c.config.Language)
	return "https://www.google.com/search?" + params.Encode()
}

// Fetch returns the HTML of pageURL via the unlocker, falling back to a
// direct request when configured.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	var unlockErr error
	if c.Configured() {
		fetchCtx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
		body, err := c.unlock(fetchCtx, pageURL, "raw")
		cancel()
		if err == nil && len(body) > 0 {
			return string(body), nil
		}
		unlockErr = err
		c.logger.Debug().Err(err).Str("url", pageURL).Msg("unlocker fetch failed")
	}

	if !c.config.DirectFallback {
		if unlockErr == nil {
			unlockErr = fmt.Errorf("%w: no fetch method available", domain.ErrUpstreamRejected)
		}
		return "", unlockErr
	}

	return c.fetchDirect(ctx, pageURL)
}

func (c *Client) fetchDirect(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// unlock posts one request to the BrightData request API
func (c *Client) unlock(ctx context.Context, target, format string) ([]byte, error) {
	payload, err := json.Marshal(unlockerRequest{Zone: c.config.Zone, URL: target, Format: format})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	return c.do(req)
}

// do executes req and maps failures to domain errors: transport errors,
// timeouts, 429 and 5xx are transient, other non-2xx statuses are rejections.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamRejected, resp.StatusCode, snippet(body))
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
