package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"perfumeshop/internal/config"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/metrics"
	"perfumeshop/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// DB疎通確認（/healthz）
type Pinger func(ctx context.Context) error

// 共通ミドルウェアと /healthz /metrics を載せたechoを返す
func NewEcho(cfg config.Config, logg *logger.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, ping Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.App.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Idempotency-Key"},
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
		AllowCredentials: true, // カートのcookie
	}))
	e.Use(middleware.RequestLogger(logg))
	e.Use(middleware.Metrics(m))

	e.GET("/healthz", func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logg.Error(ctx, "health check failed", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

// ctxがキャンセルされたらgraceful shutdownする
func Run(ctx context.Context, e *echo.Echo, addr string, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
