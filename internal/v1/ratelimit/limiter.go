// Package ratelimit implements per-IP request rate limiting.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coup-arena/backend/go/internal/v1/config"
	"github.com/coup-arena/backend/go/internal/v1/logging"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RateLimiter holds the limiter instances. Rooms live in process memory, so
// the limiter uses the in-memory store; there is no shared state to push to
// an external store.
// Each limiter gets its own store: the memory store keys by client IP
// alone, so sharing one would merge the counters.
type RateLimiter struct {
	api       *limiter.Limiter
	matchmake *limiter.Limiter
}

// NewRateLimiter creates a RateLimiter from the configured rate strings.
func NewRateLimiter(cfg *config.Config) (*RateLimiter, error) {
	apiRate, err := limiter.NewRateFromFormatted(cfg.RateLimitAPI)
	if err != nil {
		return nil, fmt.Errorf("invalid API rate: %w", err)
	}

	matchmakeRate, err := limiter.NewRateFromFormatted(cfg.RateLimitMatchmake)
	if err != nil {
		return nil, fmt.Errorf("invalid matchmake rate: %w", err)
	}

	return &RateLimiter{
		api:       limiter.New(memory.NewStore(), apiRate),
		matchmake: limiter.New(memory.NewStore(), matchmakeRate),
	}, nil
}

// Middleware returns a Gin middleware enforcing the general API limit,
// keyed by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.limitWith(rl.api, "api")
}

// MatchmakeMiddleware returns a Gin middleware enforcing the stricter
// matchmake limit.
func (rl *RateLimiter) MatchmakeMiddleware() gin.HandlerFunc {
	return rl.limitWith(rl.matchmake, "matchmake")
}

func (rl *RateLimiter) limitWith(l *limiter.Limiter, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		lctx, err := l.Get(ctx, c.ClientIP())
		if err != nil {
			// Fail open: availability beats strictness here.
			logging.Error(ctx, "rate limiter store failed", zap.String("limiter", name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			c.Header("Retry-After", strconv.FormatInt(lctx.Reset-time.Now().Unix(), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": lctx.Reset,
			})
			return
		}

		c.Next()
	}
}
