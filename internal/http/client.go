// Package http fetches remote WXR feeds with rate limiting and retries
package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/tkshop/catalog-service/internal/http/ratelimit"
)

const (
	userAgent = "TKShop-CatalogService/1.0"
	// DefaultMaxBodyBytes caps a downloaded feed
	DefaultMaxBodyBytes = 256 << 20
)

// Feed is one downloaded document
type Feed struct {
	URL         string
	Body        []byte
	ContentType string
	Checksum    string
	FetchedAt   time.Time
}

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	config       ratelimit.Config
	maxBodyBytes int64
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxBodyBytes caps response bodies; larger feeds fail
func WithMaxBodyBytes(n int64) ClientOption {
	return func(c *Client) { c.maxBodyBytes = n }
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		limiter:      ratelimit.NewLimiter(config),
		config:       config,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request with rate limiting and retry logic.
// The caller closes the body of a successful response.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastError: err}
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < c.config.MaxRetries {
				if err := ratelimit.Sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config)); err != nil {
					return nil, err
				}
				continue
			}
			break
		}

		lastStatus = resp.StatusCode
		lastErr = nil
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		resp.Body.Close()

		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: resp.StatusCode}
		}

		delay := ratelimit.CalculateBackoff(attempt, c.config)
		if resp.StatusCode == http.StatusTooManyRequests {
			delay = ratelimit.CalculateRateLimitBackoff(attempt, c.config, resp.Header.Get("Retry-After"))
		}
		log.Debug().Str("url", url).Int("status", resp.StatusCode).Dur("backoff", delay).Msg("Retrying fetch")
		if err := ratelimit.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ratelimit.FetchRetryError{
		URL:        url,
		Attempts:   c.config.MaxRetries + 1,
		LastStatus: lastStatus,
		LastError:  lastErr,
	}
}

// Fetch downloads a feed and checksums it
func (c *Client) Fetch(ctx context.Context, url string) (*Feed, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("feed %s exceeds %d bytes", url, c.maxBodyBytes)
	}

	return &Feed{
		URL:         url,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Checksum:    ComputeSha256(body),
		FetchedAt:   time.Now(),
	}, nil
}

// ComputeSha256 computes the SHA256 hash of the given data
func ComputeSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
