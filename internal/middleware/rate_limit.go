package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/dws-org/dws-frontend/pkg/response"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds per-IP token bucket settings for the forwarded
// API routes.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// Scripter runs a Lua script on Redis. Satisfied by pkg/redis.Client.
type Scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// Atomic token bucket: refill by elapsed time, take one token if available.
const rateLimitScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, tokens}
`

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// localBuckets is the in-process fallback when no Redis client is wired.
// Stale entries are dropped by a background sweep so idle IPs do not
// accumulate forever.
type localBuckets struct {
	cfg     RateLimitConfig
	entries sync.Map
}

func newLocalBuckets(cfg RateLimitConfig) *localBuckets {
	lb := &localBuckets{cfg: cfg}
	go lb.sweep()
	return lb
}

func (lb *localBuckets) allow(key string, now time.Time) bool {
	v, _ := lb.entries.LoadOrStore(key, &bucket{tokens: float64(lb.cfg.Burst), lastUpdate: now})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(float64(lb.cfg.Burst), b.tokens+elapsed*float64(lb.cfg.RequestsPerSecond))
	b.lastUpdate = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (lb *localBuckets) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-time.Minute)
		lb.entries.Range(func(key, value interface{}) bool {
			b := value.(*bucket)
			b.mu.Lock()
			stale := b.lastUpdate.Before(cutoff)
			b.mu.Unlock()
			if stale {
				lb.entries.Delete(key)
			}
			return true
		})
	}
}

// RateLimit limits requests per client IP. With a Redis client the bucket
// is shared across replicas; without one each process keeps its own. Redis
// errors fail open so the limiter never takes the forwarding surface down
// with it.
func RateLimit(cfg RateLimitConfig, rdb Scripter, log *logger.Logger) gin.HandlerFunc {
	var local *localBuckets
	if rdb == nil {
		local = newLocalBuckets(cfg)
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()

		var allowed bool
		if rdb != nil {
			now := float64(time.Now().UnixNano()) / 1e9
			res, err := rdb.Eval(c.Request.Context(), rateLimitScript,
				[]string{"ratelimit:" + ip},
				float64(cfg.RequestsPerSecond), float64(cfg.Burst), now,
			).Slice()
			if err != nil || len(res) < 1 {
				log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
				allowed = true
			} else {
				n, _ := res[0].(int64)
				allowed = n == 1
			}
		} else {
			allowed = local.allow(ip, time.Now())
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerSecond))
		if !allowed {
			c.Header("Retry-After", "1")
			response.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS",
				"Rate limit exceeded. Please retry in a moment.", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
