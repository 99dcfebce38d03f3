package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting and retry configuration
type Config struct {
	RequestsPerSecond float64 `json:"requestsPerSecond" mapstructure:"requests_per_second"`
	MaxRetries        int     `json:"maxRetries" mapstructure:"max_retries"`
	InitialBackoffMs  int     `json:"initialBackoffMs" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `json:"maxBackoffMs" mapstructure:"max_backoff_ms"`
}

// DefaultConfig returns the default rate limit configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// NewLimiter builds a token bucket for cfg; a non-positive rate disables limiting
func NewLimiter(cfg Config) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
}

// FetchRetryError is returned when all retry attempts are exhausted
type FetchRetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *FetchRetryError) Error() string {
	msg := "failed to fetch " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *FetchRetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus reports whether a response status is worth retrying: 429 and 5xx
func IsRetryableStatus(status int) bool {
	return status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff returns initial * 2^attempt capped at MaxBackoffMs, plus up to 25% jitter
func CalculateBackoff(attempt int, config Config) time.Duration {
	return backoff(attempt, 2.0, config)
}

// CalculateRateLimitBackoff is the backoff after HTTP 429. A Retry-After value in seconds wins,
// otherwise the delay grows by 3x per attempt.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds)*time.Second + time.Duration(rand.Float64()*float64(time.Second))
	}
	return backoff(attempt, 3.0, config)
}

func backoff(attempt int, factor float64, config Config) time.Duration {
	delay := float64(config.InitialBackoffMs) * math.Pow(factor, float64(attempt))
	delay = math.Min(delay, float64(config.MaxBackoffMs))
	delay += rand.Float64() * 0.25 * delay
	return time.Duration(delay * float64(time.Millisecond))
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
