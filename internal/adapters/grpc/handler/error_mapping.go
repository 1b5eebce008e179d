package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch fault.KindOf(err) {
	case fault.Unauthenticated:
		return status.Error(codes.Unauthenticated, fault.PublicMessage(err))
	case fault.Forbidden:
		return status.Error(codes.PermissionDenied, fault.PublicMessage(err))
	case fault.NotFound:
		return status.Error(codes.NotFound, fault.PublicMessage(err))
	case fault.BadRequest:
		return status.Error(codes.InvalidArgument, fault.PublicMessage(err))
	case fault.Conflict:
		return status.Error(codes.AlreadyExists, fault.PublicMessage(err))
	default:
		return status.Error(codes.Internal, fault.PublicMessage(err))
	}
}

// UnaryErrorInterceptor はハンドラーのエラーを gRPC ステータスへ変換し、呼び出しを記録します。
func UnaryErrorInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		mapped := toStatusError(err)

		attrs := []any{
			slog.String("method", info.FullMethod),
			slog.Duration("duration", time.Since(start)),
			slog.String("code", status.Code(mapped).String()),
		}
		if err != nil && status.Code(mapped) == codes.Internal {
			logger.ErrorContext(ctx, "grpc call failed", append(attrs, slog.Any("error", err))...)
		} else {
			logger.DebugContext(ctx, "grpc call", attrs...)
		}
		return resp, mapped
	}
}
