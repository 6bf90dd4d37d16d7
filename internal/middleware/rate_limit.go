package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"

	"github.com/labstack/echo/v4"
)

// 固定ウィンドウのカウンタ（実装はinfra/redis）
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// IPごとのレート制限。limiterがnilなら何もしない。Redis障害時は通す
func RateLimit(limiter RateLimiter, scope string, limit int64, window time.Duration, m *metrics.Metrics, logg *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil || limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			allowed, count, err := limiter.FixedWindowAllow(ctx, scope+":"+c.RealIP(), limit, window)
			if err != nil {
				logg.Error(ctx, "rate limit check failed", err)
				return next(c)
			}
			if !allowed {
				m.RateLimited(scope)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many requests"))
			}
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(limit-count, 0), 10))
			return next(c)
		}
	}
}
