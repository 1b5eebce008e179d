package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInMemoryLimiter_WindowResets(t *testing.T) {
	t.Parallel()

	l := NewInMemory(time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if !l.Allow(ctx, "acct:1", 2).Allowed {
		t.Fatalf("first request should be allowed")
	}
	if d := l.Allow(ctx, "acct:1", 2); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("second request: expected allowed with 0 remaining, got %+v", d)
	}
	if d := l.Allow(ctx, "acct:1", 2); d.Allowed || d.Count != 3 {
		t.Fatalf("third request: expected rejection at count 3, got %+v", d)
	}
	if !l.Allow(ctx, "acct:2", 2).Allowed {
		t.Fatalf("keys must be counted independently")
	}

	now = now.Add(time.Minute)
	if !l.Allow(ctx, "acct:1", 2).Allowed {
		t.Fatalf("new window should allow again")
	}
}

func TestRedisLimiter_CountsAcrossCalls(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, 30*time.Second, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "ip:10.0.0.1", 3).Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if d := l.Allow(ctx, "ip:10.0.0.1", 3); d.Allowed || d.Count != 4 {
		t.Fatalf("expected rejection at count 4, got %+v", d)
	}
	if !srv.Exists("personnel:rl:ip:10.0.0.1") {
		t.Fatalf("expected counter key in redis")
	}

	srv.FastForward(31 * time.Second)
	if !l.Allow(ctx, "ip:10.0.0.1", 3).Allowed {
		t.Fatalf("expired window should allow again")
	}
}

func TestRedisLimiter_FallsBackWhenUnavailable(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	l := NewRedis(client, time.Minute, discardLogger())
	ctx := context.Background()

	if !l.Allow(ctx, "acct:9", 1).Allowed {
		t.Fatalf("fallback should allow the first request")
	}
	if l.Allow(ctx, "acct:9", 1).Allowed {
		t.Fatalf("fallback should reject over the limit")
	}
}

func TestNewRedisDefaults(t *testing.T) {
	t.Parallel()

	l := NewRedis(nil, 0, nil)
	if l.window != time.Minute {
		t.Fatalf("expected default window of 1m, got %s", l.window)
	}
	if l.fallback == nil {
		t.Fatalf("expected in-memory fallback")
	}
	if !l.Allow(context.Background(), "k", 0).Allowed {
		t.Fatalf("limit 0 should disable limiting")
	}
}
