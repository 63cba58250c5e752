package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openalpha/perp-router/metrics"
)

// RateLimiter implements a per-client token bucket rate limiter
type RateLimiter struct {
	config *RateLimitConfig

	buckets   map[string]*Bucket
	bucketsMu sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64       // refill rate per client
	Burst             int           // bucket capacity
	BlockDuration     time.Duration // how long a client stays blocked after exhausting its bucket
	CleanupInterval   time.Duration // how often idle buckets are dropped
	BucketTTL         time.Duration // idle time before a bucket is dropped
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		BlockDuration:     10 * time.Second,
		CleanupInterval:   5 * time.Minute,
		BucketTTL:         time.Hour,
	}
}

// Bucket is a token bucket for one client
type Bucket struct {
	tokens       float64
	lastUpdate   time.Time
	blockedUntil time.Time
}

// RateLimitInfo contains rate limit information
type RateLimitInfo struct {
	Allowed    bool `json:"allowed"`
	Remaining  int  `json:"remaining"`
	Limit      int  `json:"limit"`
	RetryAfter int  `json:"retry_after,omitempty"`
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*Bucket),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	threshold := rl.now().Add(-rl.config.BucketTTL)

	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	for key, bucket := range rl.buckets {
		if bucket.lastUpdate.Before(threshold) {
			delete(rl.buckets, key)
		}
	}
}

// Allow consumes one token for client
func (rl *RateLimiter) Allow(client string) (bool, *RateLimitInfo) {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()

	now := rl.now()
	limit := rl.config.Burst
	bucket, ok := rl.buckets[client]
	if !ok {
		bucket = &Bucket{tokens: float64(limit), lastUpdate: now}
		rl.buckets[client] = bucket
	}

	if now.Before(bucket.blockedUntil) {
		return false, &RateLimitInfo{
			Limit:      limit,
			RetryAfter: int(bucket.blockedUntil.Sub(now).Seconds()) + 1,
		}
	}

	bucket.tokens += now.Sub(bucket.lastUpdate).Seconds() * rl.config.RequestsPerSecond
	if bucket.tokens > float64(limit) {
		bucket.tokens = float64(limit)
	}
	bucket.lastUpdate = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, &RateLimitInfo{Allowed: true, Remaining: int(bucket.tokens), Limit: limit}
	}

	bucket.blockedUntil = now.Add(rl.config.BlockDuration)
	return false, &RateLimitInfo{
		Limit:      limit,
		RetryAfter: int(rl.config.BlockDuration.Seconds()) + 1,
	}
}

// BucketCount returns the number of tracked clients
func (rl *RateLimiter) BucketCount() int {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	return len(rl.buckets)
}

// RateLimitMiddleware limits requests per client IP
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, info := rl.Allow(ip)

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
			if !allowed {
				metrics.GetCollector().RecordRateLimitHit("ip")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", info.RetryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests, please slow down",
					"retry_after": info.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the address chi's RealIP middleware left in RemoteAddr,
// without the port
func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 && !strings.Contains(ip[i:], "]") {
		return ip[:i]
	}
	return ip
}
