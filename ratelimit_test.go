package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurst(t *testing.T) {
	var cfg Config
	cfg.RateLimit.PerSecond = 0.001
	cfg.RateLimit.Burst = 3
	rl := NewRateLimiter(&cfg)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "Within burst")
	}
	assert.False(t, rl.Allow("10.0.0.1"), "Burst spent")
	assert.True(t, rl.Allow("10.0.0.2"), "Other clients have their own bucket")
}

func TestRateLimiterDefaults(t *testing.T) {
	var cfg Config
	rl := NewRateLimiter(&cfg)
	defer rl.Close()
	assert.Equal(t, DefaultRateBurst, rl.burst)
	assert.InDelta(t, DefaultRatePerSecond, float64(rl.rate), 0.0001)
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientAddr(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientAddr(req))
}

func TestRateLimiterClose(t *testing.T) {
	var cfg Config
	rl := NewRateLimiter(&cfg)
	rl.Close()
	rl.Close()

	exited := make(chan struct{})
	go func() {
		rl.purgeIdle()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("purge loop kept running after Close")
	}
	assert.True(t, rl.Allow("10.0.0.1"), "Still usable after Close")
}

func TestRateLimiterPurge(t *testing.T) {
	var cfg Config
	rl := NewRateLimiter(&cfg)
	defer rl.Close()

	rl.Allow("10.0.0.1")
	rl.purgeBefore(time.Now().Add(-time.Minute))
	assert.Len(t, rl.limiters, 1, "Recently seen")

	rl.purgeBefore(time.Now().Add(time.Minute))
	assert.Empty(t, rl.limiters)
}
