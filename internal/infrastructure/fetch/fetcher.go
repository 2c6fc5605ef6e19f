package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ErrNetwork marks any transport-level fetch failure: non-2xx status,
// timeout, DNS or TLS failure. The fetcher never retries; the next
// scheduled run is the retry mechanism.
var ErrNetwork = errors.New("network failure")

// Browser-like identification reduces trivial bot blocking on article
// pages. Values mirror what the sites accept from ordinary readers.
const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "en-GB,en;q=0.9"

	maxBodySize = 5 << 20 // 5 MiB per page is plenty for news markup
)

// Client retrieves raw HTML bodies with per-host rate limiting and a
// mandatory finite timeout.
type Client struct {
	http    *http.Client
	limiter *HostLimiter
	logger  *slog.Logger
}

// NewClient wires an HTTP client; timeout defaults to 15s when zero.
func NewClient(timeout, hostDelay time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: NewHostLimiter(hostDelay),
		logger:  logger,
	}
}

// Get fetches the body at rawURL. referer, when non-empty, is sent along
// with the browser identification headers.
func (c *Client) Get(ctx context.Context, rawURL, referer string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %s: %w", rawURL, err)
	}

	if err := c.limiter.Wait(ctx, parsed.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Connection", "keep-alive")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrNetwork, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s returned %s", ErrNetwork, rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrNetwork, rawURL, err)
	}

	if c.logger != nil {
		c.logger.Debug("fetched", "url", rawURL, "bytes", len(body))
	}

	return body, nil
}
