package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

func TestToStatusError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{name: "unauthenticated", err: fault.New(fault.Unauthenticated, "missing session"), code: codes.Unauthenticated, message: "missing session"},
		{name: "forbidden", err: fault.New(fault.Forbidden, "nope"), code: codes.PermissionDenied, message: "nope"},
		{name: "not found", err: fault.New(fault.NotFound, "gone"), code: codes.NotFound, message: "gone"},
		{name: "bad request", err: fault.New(fault.BadRequest, "bad"), code: codes.InvalidArgument, message: "bad"},
		{name: "conflict", err: fault.New(fault.Conflict, "dup"), code: codes.AlreadyExists, message: "dup"},
		{name: "internal hides detail", err: fault.Wrap(fault.Internal, errors.New("pq: secret"), "postgres"), code: codes.Internal, message: "internal error"},
		{name: "plain error", err: errors.New("boom"), code: codes.Internal, message: "internal error"},
		{name: "deadline", err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
		{name: "status passthrough", err: status.Error(codes.Unavailable, "down"), code: codes.Unavailable, message: "down"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			st, ok := status.FromError(toStatusError(tc.err))
			if !ok {
				t.Fatalf("expected status error")
			}
			if st.Code() != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, st.Code())
			}
			if tc.message != "" && st.Message() != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, st.Message())
			}
		})
	}

	if toStatusError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestUnaryErrorInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := UnaryErrorInterceptor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, fault.New(fault.Forbidden, "denied")
	})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	resp, err := interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected result %v %v", resp, err)
	}
}
