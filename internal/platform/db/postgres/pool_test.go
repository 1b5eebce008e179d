package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "personnel",
		Password:        "pass",
		Name:            "personnel",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	poolCfg, err := BuildPoolConfig(testDatabaseConfig())
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 || poolCfg.MinConns != 5 {
		t.Errorf("unexpected pool sizes: max=%d min=%d", poolCfg.MaxConns, poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != 30*time.Minute || poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected lifetimes: %v / %v", poolCfg.MaxConnLifetime, poolCfg.MaxConnIdleTime)
	}
	if poolCfg.ConnConfig.Database != "personnel" {
		t.Errorf("expected database personnel, got %s", poolCfg.ConnConfig.Database)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != ApplicationName {
		t.Errorf("expected application_name %s, got %q", ApplicationName, got)
	}
	if poolCfg.ConnConfig.Tracer != nil {
		t.Errorf("tracer must be unset without WithQueryLogger")
	}
}

func TestBuildPoolConfig_MinConnsCappedByMax(t *testing.T) {
	t.Parallel()

	cfg := testDatabaseConfig()
	cfg.MaxOpenConns = 2
	cfg.MaxIdleConns = 8

	poolCfg, err := BuildPoolConfig(cfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if poolCfg.MinConns != 2 {
		t.Fatalf("expected MinConns capped to 2, got %d", poolCfg.MinConns)
	}
}

func TestWithQueryLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	poolCfg, err := BuildPoolConfig(testDatabaseConfig(), WithQueryLogger(logger))
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if _, ok := poolCfg.ConnConfig.Tracer.(*tracelog.TraceLog); !ok {
		t.Fatalf("expected tracelog tracer, got %T", poolCfg.ConnConfig.Tracer)
	}

	queryLogger(logger)(context.Background(), tracelog.LogLevelWarn, "Query", map[string]any{"sql": "SELECT 1"})
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `msg="pgx: Query"`) || !strings.Contains(out, `sql="SELECT 1"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
