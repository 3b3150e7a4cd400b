package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// KeyGenerator returns the bucket key, the client IP by default
	KeyGenerator func(c *fiber.Ctx) string
	// Skip exempts requests, e.g. high-rate frame ingest
	Skip func(c *fiber.Ctx) bool
}

// DefaultRateLimiterConfig returns default configuration
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Max:    120,
		Window: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}
}

// bucket is one fixed window for a key
type bucket struct {
	count      int
	windowEnd  time.Time
	lastAccess time.Time
}

// RateLimiter implements fixed-window rate limiting per key
type RateLimiter struct {
	config  RateLimiterConfig
	buckets map[string]*bucket
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	defaults := DefaultRateLimiterConfig()
	if config.Max <= 0 {
		config.Max = defaults.Max
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaults.KeyGenerator
	}

	rl := &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Stop shuts down the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Handler returns the Fiber middleware handler
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.config.Skip != nil && rl.config.Skip(c) {
			return c.Next()
		}

		// Count this request in the caller's window
		count, windowEnd := rl.hit(rl.config.KeyGenerator(c), time.Now())

		remaining := rl.config.Max - count
		if remaining < 0 {
			remaining = 0
		}
		// Set rate limit headers
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.Max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", windowEnd.Format(time.RFC3339))

		if count > rl.config.Max {
			c.Set("Retry-After", strconv.Itoa(int(time.Until(windowEnd).Seconds())+1))
			return domain.ErrRateLimitExceeded
		}

		return c.Next()
	}
}

func (rl *RateLimiter) hit(key string, now time.Time) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.After(b.windowEnd) {
		// New key or expired window
		b = &bucket{windowEnd: now.Add(rl.config.Window)}
		rl.buckets[key] = b
	}
	b.count++
	b.lastAccess = now

	return b.count, b.windowEnd
}

// cleanup removes buckets idle for two windows
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, b := range rl.buckets {
				if now.Sub(b.lastAccess) > 2*rl.config.Window {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
