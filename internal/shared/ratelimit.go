package shared

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/utils"
)

type Limit struct {
	Name   string
	Max    int
	Window time.Duration
}

var (
	LimitLogin        = Limit{Name: "login", Max: 5, Window: 5 * time.Minute}
	LimitRegister     = Limit{Name: "register", Max: 3, Window: 10 * time.Minute}
	LimitOrderCreate  = Limit{Name: "orders:create", Max: 10, Window: time.Minute}
	LimitOrderList    = Limit{Name: "orders:list", Max: 60, Window: time.Minute}
	LimitWithdrawals  = Limit{Name: "withdrawals", Max: 10, Window: time.Minute}
	LimitAdmin        = Limit{Name: "admin", Max: 120, Window: time.Minute}
	LimitPublicConfig = Limit{Name: "bot-config", Max: 120, Window: time.Minute}
)

type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter counts requests in fixed windows. Counters live in Redis when a
// client is configured and in process memory otherwise.
type RateLimiter struct {
	rdb           *redis.Client
	disabled      bool
	automationKey string

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewRateLimiter(rdb *redis.Client, disabled bool, automationKey string) *RateLimiter {
	return &RateLimiter{
		rdb:           rdb,
		disabled:      disabled,
		automationKey: automationKey,
		windows:       make(map[string]*window),
		now:           time.Now,
	}
}

func (l *RateLimiter) Allow(ctx context.Context, key string, lim Limit) (Decision, error) {
	if l.rdb != nil {
		return l.allowRedis(ctx, key, lim)
	}
	return l.allowMemory(key, lim), nil
}

func (l *RateLimiter) allowRedis(ctx context.Context, key string, lim Limit) (Decision, error) {
	redisKey := "ratelimit:" + key
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, lim.Window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit pipeline failed: %w", err)
	}
	remainingTTL := ttl.Val()
	if remainingTTL < 0 {
		remainingTTL = lim.Window
	}
	return decide(int(incr.Val()), lim, l.now().Add(remainingTTL), l.now()), nil
}

func (l *RateLimiter) allowMemory(key string, lim Limit) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(lim.Window)}
		l.windows[key] = w
	}
	w.count++

	if len(l.windows) > 10000 {
		for k, v := range l.windows {
			if !now.Before(v.resetAt) {
				delete(l.windows, k)
			}
		}
	}
	return decide(w.count, lim, w.resetAt, now)
}

func decide(count int, lim Limit, resetAt, now time.Time) Decision {
	d := Decision{ResetAt: resetAt, Remaining: lim.Max - count}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	d.Allowed = count <= lim.Max
	if !d.Allowed {
		d.RetryAfter = resetAt.Sub(now)
	}
	return d
}

func (l *RateLimiter) bypass(c *gin.Context) bool {
	if l.disabled {
		return true
	}
	return l.automationKey != "" && c.GetHeader(HeaderAutomationKey) == l.automationKey
}

// Middleware limits by route name and client IP.
func (l *RateLimiter) Middleware(lim Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.bypass(c) {
			c.Next()
			return
		}
		key := lim.Name + ":" + utils.ClientIP(c)
		d, err := l.Allow(c.Request.Context(), key, lim)
		if err != nil {
			utils.Zlog.Warn("Rate limiter unavailable, allowing request",
				zap.String("limit", lim.Name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(lim.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
		if !d.Allowed {
			seconds := int(math.Ceil(d.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			RateLimited.WithLabelValues(lim.Name).Inc()
			c.Header("Retry-After", strconv.Itoa(seconds))
			utils.WriteError(c, utils.TooManyRequests(
				fmt.Sprintf("Too many requests. Please try again in %d seconds.", seconds)))
			return
		}
		c.Next()
	}
}
