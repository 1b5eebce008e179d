package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ogurasousui/personnel-core/internal/adapters/grpc/handler"
)

// ServiceName はヘルスチェックで公開するサービス名です。
const ServiceName = "personnel.v1.Core"

const defaultProbeInterval = 15 * time.Second

// Pinger はデータベース疎通確認の抽象です。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr    string
	grpcServer    *grpc.Server
	health        *health.Server
	db            Pinger
	probeInterval time.Duration
	logger        *slog.Logger
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
// 標準のヘルスチェックサービスを登録し、db の疎通状態で SERVING を切り替えます。
func New(listenAddr string, db Pinger, logger *slog.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(handler.UnaryErrorInterceptor(logger)))
	srv := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		listenAddr:    listenAddr,
		grpcServer:    srv,
		health:        hs,
		db:            db,
		probeInterval: defaultProbeInterval,
		logger:        logger,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は既存のリスナーで待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Probe(ctx)

	go func() {
		ticker := time.NewTicker(s.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpcServer.GracefulStop()
				return
			case <-ticker.C:
				s.Probe(ctx)
			}
		}
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// Probe はデータベースへ ping し、ヘルスステータスを更新します。
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.db.Ping(pingCtx); err != nil {
			s.logger.WarnContext(ctx, "database probe failed", slog.Any("error", err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
