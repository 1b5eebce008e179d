package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/personnel-core/internal/adapters/repository/postgres"
	"github.com/ogurasousui/personnel-core/internal/platform/buildinfo"
	"github.com/ogurasousui/personnel-core/internal/platform/config"
	pg "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
	"github.com/ogurasousui/personnel-core/internal/platform/healthpoll"
	"github.com/ogurasousui/personnel-core/internal/platform/logging"
	"github.com/ogurasousui/personnel-core/internal/platform/server"
	"github.com/ogurasousui/personnel-core/internal/platform/telemetry"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		once        = flag.Bool("once", false, "check every target once and exit")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Info("healthpoller").String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	if err := run(ctx, cfg, logger, *once); err != nil {
		logger.Error("health poller stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, once bool) error {
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, buildinfo.Version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	dbPool, err := pg.NewPool(ctx, cfg.Database, pg.WithQueryLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	poller, err := healthpoll.New(cfg.Poller, map[string]healthpoll.Prober{
		"http": healthpoll.NewHTTPProber(nil),
		"grpc": healthpoll.NewGRPCProber(server.ServiceName),
	}, postgres.NewServiceCheckRepository(dbPool), logger)
	if err != nil {
		return err
	}

	if once {
		results := poller.RunOnce(ctx)
		logger.Info("health poll completed", slog.Int("recorded", len(results)))
		return nil
	}

	logger.Info("health poller started",
		slog.Int("targets", len(cfg.Poller.Targets)),
		slog.Duration("interval", cfg.Poller.Interval))
	return poller.Run(ctx)
}
