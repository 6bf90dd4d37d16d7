package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"perfumeshop/internal/config"
	"perfumeshop/internal/infra/db"
	"perfumeshop/internal/infra/migrations"
	"perfumeshop/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	if cfg.DB.Driver != config.DriverPostgres {
		fmt.Fprintln(os.Stderr, "goose migrations target postgres; sqlite uses AutoMigrate on startup")
		os.Exit(1)
	}

	gormDB, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer db.Close(gormDB)

	sqlDB, err := gormDB.DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		err = migrations.Run(ctx, sqlDB, *cmd)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		err = migrations.MigrateToVersion(ctx, sqlDB, *version)
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
