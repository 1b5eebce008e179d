package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/ogurasousui/personnel-core/internal/adapters/http"
	"github.com/ogurasousui/personnel-core/internal/adapters/repository/postgres"
	"github.com/ogurasousui/personnel-core/internal/core/biennium"
	"github.com/ogurasousui/personnel-core/internal/core/credential"
	"github.com/ogurasousui/personnel-core/internal/core/deletion"
	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/session"
	"github.com/ogurasousui/personnel-core/internal/platform/auth"
	"github.com/ogurasousui/personnel-core/internal/platform/buildinfo"
	"github.com/ogurasousui/personnel-core/internal/platform/config"
	pg "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
	"github.com/ogurasousui/personnel-core/internal/platform/logging"
	"github.com/ogurasousui/personnel-core/internal/platform/metrics"
	"github.com/ogurasousui/personnel-core/internal/platform/ratelimit"
	"github.com/ogurasousui/personnel-core/internal/platform/server"
	"github.com/ogurasousui/personnel-core/internal/platform/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Info("server").String())
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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, buildinfo.Version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	dbPool, err := pg.NewPool(ctx, cfg.Database, pg.WithQueryLogger(logger))
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	schemas := records.DefaultRegistry()
	reg := metrics.NewRegistry()

	accountRepo := postgres.NewAccountRepository(dbPool)
	recordRepo := postgres.NewRecordRepository(dbPool)
	bienniumRepo := postgres.NewBienniumRepository(dbPool)
	deletionRepo := postgres.NewDeletionRepository(dbPool, schemas)

	table, err := policy.NewTable(policy.DefaultRules())
	if err != nil {
		return fmt.Errorf("build policy table: %w", err)
	}
	engine := policy.NewEngine(table, accountRepo, reg)

	deletionSvc := deletion.NewService(deletionRepo, txManager, cfg.Deletion.Timeout, logger)
	recordSvc := records.NewService(schemas, recordRepo, engine,
		records.WithTransactionManager(txManager),
		records.WithCascader(deletionSvc),
		records.WithHasher(credential.BcryptHasher{Cost: cfg.Auth.BcryptCost}),
	)
	bienniumSvc := biennium.NewService(bienniumRepo, nil)

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()

	api := httpapi.NewServer(httpapi.Deps{
		Sessions:      session.NewResolver(accountRepo),
		Credentials:   credential.NewVerifier(accountRepo),
		Records:       recordSvc,
		Biennia:       bienniumSvc,
		Deletion:      deletionSvc,
		Policy:        engine,
		Employees:     accountRepo,
		DB:            dbPool,
		Signer:        auth.NewSigner(cfg.Auth),
		RequireSigned: cfg.Auth.RequireSigned,
		Limiter:       limiter,
		RateLimit:     cfg.RateLimit.Requests,
		Metrics:       reg,
		Logger:        logger,
		ServiceName:   cfg.Telemetry.ServiceName,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}
	grpcServer := server.New(cfg.Server.ListenAddr, dbPool, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening", slog.String("addr", cfg.HTTP.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC health listening", slog.String("addr", cfg.Server.ListenAddr))
		return grpcServer.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	return g.Wait()
}

// newLimiter は Redis が設定されていれば共有リミッターを、無ければプロセス内リミッターを返します。
func newLimiter(cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func()) {
	if cfg.RateLimit.Requests <= 0 {
		return nil, func() {}
	}
	if !cfg.Redis.Enabled() {
		return ratelimit.NewInMemory(cfg.RateLimit.Window), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return ratelimit.NewRedis(client, cfg.RateLimit.Window, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", slog.Any("error", err))
		}
	}
}
