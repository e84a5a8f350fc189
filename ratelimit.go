package main

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRatePerSecond float64 = 2
	DefaultRateBurst     int     = 5
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client address. It guards the routes
// that cause an outbound call to the image API.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stop     sync.Once
}

func NewRateLimiter(cfg *Config) *RateLimiter {
	perSecond := DefaultRatePerSecond
	if cfg.RateLimit.PerSecond > 0 {
		perSecond = cfg.RateLimit.PerSecond
	}
	burst := DefaultRateBurst
	if cfg.RateLimit.Burst > 0 {
		burst = cfg.RateLimit.Burst
	}
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go rl.purgeIdle()
	return rl
}

func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[client]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[client] = l
	}
	l.lastSeen = time.Now()
	return l.limiter.Allow()
}

func (rl *RateLimiter) purgeIdle() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.purgeBefore(time.Now().Add(-5 * time.Minute))
		}
	}
}

func (rl *RateLimiter) purgeBefore(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, client)
		}
	}
}

// Close stops the purge loop. Allow keeps working afterwards.
func (rl *RateLimiter) Close() {
	rl.stop.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientAddr(r)) {
			retryAfter := max(int(1.0/float64(rl.rate)), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
