package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"perfumeshop/internal/config"
	"perfumeshop/internal/handler"
	"perfumeshop/internal/infra/db"
	"perfumeshop/internal/infra/mailer"
	"perfumeshop/internal/infra/migrations"
	"perfumeshop/internal/infra/redis"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/middleware"
	"perfumeshop/internal/server"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	handler.SetLogger(logg)

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close(gormDB))
	}()

	if err := migrations.MaybeRunDev(ctx, cfg, logg, gormDB, db.AutoMigrate); err != nil {
		return err
	}

	// Redisはレート制限用（無ければ制限なし）
	var limiter middleware.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient, rerr := redis.New(ctx, cfg.Redis, logg)
		if rerr != nil {
			return rerr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		limiter = redisClient
	} else {
		logg.Warn(ctx, "REDIS_URL not set, rate limiting disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := server.NewApp(cfg, logg, server.Deps{
		DB:       gormDB,
		Limiter:  limiter,
		Mailer:   mailer.NewLogMailer(logg),
		Registry: reg,
	})
	if err != nil {
		return err
	}

	//Server起動
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	return server.Run(ctx, e, cfg.App.Addr(), logg)
}
