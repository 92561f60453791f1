package middleware

import (
	"context" // Context for Redis operations
	"strconv" // Header values
	"time"    // Window durations

	"shop_api/internal/apperr" // Error taxonomy

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// RateDecision is the outcome of one rate limit check
type RateDecision struct {
	Allowed   bool      // Whether the request may proceed
	Count     int       // Requests seen in the current window
	WindowEnd time.Time // When the window resets
}

// RateLimiter counts requests per key in fixed windows
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision
}

// RedisRateLimiter is a fixed-window counter shared by all instances. It
// fails open: when Redis is unavailable requests are allowed.
type RedisRateLimiter struct {
	client  *redis.Client // Redis client, nil disables limiting
	prefix  string        // Key prefix
	timeout time.Duration // Budget for the Redis round trips
}

// NewRedisRateLimiter creates a limiter on top of rdb
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: rdb, prefix: "shop:ratelimit:", timeout: 250 * time.Millisecond}
}

// Allow increments the counter for key and reports whether it is within limit
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if rl.client == nil || limit <= 0 {
		return RateDecision{Allowed: true} // Limiting disabled
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	// Count the request and read the window in one round trip
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		logrus.WithError(err).Warn("Rate limiter unavailable")
		return RateDecision{Allowed: true} // Fail open
	}
	counter := incr.Val()
	remaining := ttl.Val()
	if remaining < 0 {
		// New key, or an earlier EXPIRE was lost: (re)start the window
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			logrus.WithError(err).Warn("Rate limiter expire failed")
		}
		remaining = window
	}
	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(remaining),
	}
}

// RateLimit rejects callers exceeding limit requests per window, keyed by
// route and client IP
func RateLimit(limiter RateLimiter, metrics *Metrics, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next() // Limiting disabled
			return
		}
		route := c.FullPath()                                                                 // Route template
		decision := limiter.Allow(c.Request.Context(), route+":"+c.ClientIP(), limit, window) // Count the request
		remaining := max(limit-decision.Count, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !decision.WindowEnd.IsZero() {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.WindowEnd.Unix(), 10))
		}
		if !decision.Allowed {
			metrics.recordRateLimitHit(route) // Count the rejection
			c.Header("Retry-After", strconv.Itoa(int(time.Until(decision.WindowEnd).Seconds())+1))
			AbortWithError(c, apperr.ErrRateLimited)
			return
		}
		c.Next()
	}
}
