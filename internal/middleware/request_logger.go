package middleware

import (
	"time"

	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"

	"github.com/labstack/echo/v4"
)

// request_id/method/pathをcontextのロガーに乗せ、終わったら1行出す
func RequestLogger(logg *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = req.Header.Get(echo.HeaderXRequestID)
			}

			ctx := logg.WithFields(req.Context(), map[string]any{
				"request_id": reqID,
				"method":     req.Method,
				"path":       c.Path(),
			})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			ctx = logg.WithFields(c.Request().Context(), map[string]any{
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			})
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				ctx = logg.WithField(ctx, "user_id", uid)
			}
			if c.Response().Status >= 500 {
				logg.Warn(ctx, "request failed")
			} else {
				logg.Info(ctx, "request completed")
			}
			return nil
		}
	}
}

// HTTPメトリクス（routeはパターンで集計）
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
