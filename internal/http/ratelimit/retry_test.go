package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		if got := IsRetryableStatus(tt.status); got != tt.want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	for attempt, base := range []time.Duration{100, 200, 400, 800, 1000, 1000} {
		got := CalculateBackoff(attempt, cfg)
		min := base * time.Millisecond
		max := min + min/4
		assert.GreaterOrEqual(t, got, min, "attempt %d", attempt)
		assert.LessOrEqual(t, got, max, "attempt %d", attempt)
	}
}

func TestCalculateRateLimitBackoff(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 10000}

	got := CalculateRateLimitBackoff(0, cfg, "2")
	assert.GreaterOrEqual(t, got, 2*time.Second)
	assert.Less(t, got, 3*time.Second)

	got = CalculateRateLimitBackoff(2, cfg, "soon")
	assert.GreaterOrEqual(t, got, 900*time.Millisecond)
	assert.LessOrEqual(t, got, 1125*time.Millisecond)
}

func TestFetchRetryError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &FetchRetryError{URL: "https://shop.example/feed.xml", Attempts: 4, LastStatus: 503, LastError: cause}
	assert.Equal(t, "failed to fetch https://shop.example/feed.xml after 4 attempts (HTTP 503): connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
