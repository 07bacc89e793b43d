// Package provider fetches vendor status pages and normalizes them into the
// common schema. Each vendor API family has an adapter; the detector probes a
// source once and caches which adapter serves it.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/doyensec/safeurl"
	"golang.org/x/time/rate"
)

const (
	userAgent = "statusbar/1.0"

	// maxBodySize bounds how much of a vendor response is read.
	maxBodySize = 4 << 20
)

// ErrDecode marks a response that did not match the expected schema.
var ErrDecode = errors.New("response schema mismatch")

// StatusError is returned for non-2xx vendor responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

// ClientConfig controls the fetch client.
type ClientConfig struct {
	RequestTimeout time.Duration
	// HostRateLimit caps requests per second to a single host so a refresh
	// cycle never hammers one status page.
	HostRateLimit float64
	// AllowPrivateHosts disables the SSRF guard. Tests use it to reach
	// httptest servers on loopback.
	AllowPrivateHosts bool
}

// Client is an HTTP client for vendor status APIs with per-host rate
// limiting and SSRF protection for user-configured URLs.
type Client struct {
	http     *http.Client
	hostRate rate.Limit

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a fetch client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.HostRateLimit <= 0 {
		cfg.HostRateLimit = 4
	}

	var httpClient *http.Client
	if cfg.AllowPrivateHosts {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	} else {
		safeCfg := safeurl.GetConfigBuilder().
			SetTimeout(cfg.RequestTimeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		httpClient = safeurl.Client(safeCfg).Client
	}

	return &Client{
		http:     httpClient,
		hostRate: rate.Limit(cfg.HostRateLimit),
		limiters: make(map[string]*rate.Limiter),
	}
}

// GetJSON fetches rawURL and decodes the JSON body into v. Decode failures
// are wrapped with ErrDecode so callers can tell schema mismatches apart from
// network errors.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDecode, rawURL, err)
	}
	return nil
}

// Get fetches rawURL and returns the bounded response body.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.waitForHost(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	return body, nil
}

func (c *Client) waitForHost(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %s: %w", rawURL, err)
	}

	c.mu.Lock()
	limiter, ok := c.limiters[parsed.Host]
	if !ok {
		limiter = rate.NewLimiter(c.hostRate, int(c.hostRate)+1)
		c.limiters[parsed.Host] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}
