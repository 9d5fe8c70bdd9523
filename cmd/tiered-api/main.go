package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-tiered-service/internal/api"
	"github.com/goliatone/go-tiered-service/internal/config"
	"github.com/goliatone/go-tiered-service/internal/logging"
	"github.com/goliatone/go-tiered-service/internal/metrics"
	"github.com/goliatone/go-tiered-service/internal/store"
	"github.com/goliatone/go-tiered-service/pkg/di"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := logging.New(logging.Options{App: "tiered-api"})
		fallback.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(logging.Options{
		App:     "tiered-api",
		Level:   cfg.LogLevel,
		NoColor: cfg.LogNoColor,
		JSON:    cfg.LogJSON,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("tiered-api stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	sqldb, err := sql.Open("postgres", cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Warn().Err(err).Msg("database not reachable yet")
	}

	container, err := di.NewContainer(ctx, cfg.Cache, cfg.Orchestrator, di.FromStore(store.NewRepositories(db)),
		di.WithLogger(logger),
		di.WithObserver(metrics.NewObserver()),
	)
	if err != nil {
		return err
	}
	metrics.TrackCache(container.Cache())

	logger.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Dur("cache_ttl", cfg.Cache.TTL).
		Dur("slow_threshold", cfg.Orchestrator.SlowOperationThreshold).
		Msg("tiered-api starting")

	if !logger.Debug().Enabled() {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewServer(container.APIServices(), logger).Run(ctx, cfg.ListenAddr)
}
