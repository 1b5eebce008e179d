package healthpoll

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

type stubProber struct {
	status Status
	dbOK   bool
}

func (s stubProber) Probe(context.Context, string) (Status, bool) { return s.status, s.dbOK }

type memoryStore struct {
	mu   sync.Mutex
	rows []Result
	err  error
}

func (m *memoryStore) Record(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, r)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func TestNew_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	cfg := config.PollerConfig{Targets: []config.PollerTarget{{Name: "core", Kind: "tcp", URL: "core:9090"}}}
	if _, err := New(cfg, map[string]Prober{"http": stubProber{}}, &memoryStore{}, discardLogger()); err == nil {
		t.Fatalf("expected error for unknown prober kind")
	}
}

func TestRunOnce_RecordsEveryTarget(t *testing.T) {
	t.Parallel()

	cfg := config.PollerConfig{
		Timeout: time.Second,
		Targets: []config.PollerTarget{
			{Name: "api", Kind: "http", URL: "http://core:8080/health"},
			{Name: "grpc", Kind: "grpc", URL: "core:9090"},
		},
	}
	store := &memoryStore{}
	p, err := New(cfg, map[string]Prober{
		"http": stubProber{status: StatusUp, dbOK: true},
		"grpc": stubProber{status: StatusDegraded},
	}, store, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	got := p.RunOnce(context.Background())
	if len(got) != 2 || store.count() != 2 {
		t.Fatalf("expected 2 results and 2 stored rows, got %d and %d", len(got), store.count())
	}

	api, rpc := got[0], got[1]
	if api.Service != "api" || api.Status != StatusUp || !api.DBOK || !api.CheckedAt.Equal(fixed) {
		t.Fatalf("unexpected api result: %+v", api)
	}
	if rpc.Service != "grpc" || rpc.URL != "core:9090" || rpc.Status != StatusDegraded || rpc.DBOK {
		t.Fatalf("unexpected grpc result: %+v", rpc)
	}
}

func TestRunOnce_StoreFailureIsSkipped(t *testing.T) {
	t.Parallel()

	cfg := config.PollerConfig{Targets: []config.PollerTarget{{Name: "api", Kind: "http", URL: "http://core/health"}}}
	p, err := New(cfg, map[string]Prober{"http": stubProber{status: StatusUp}}, &memoryStore{err: errors.New("db down")}, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := p.RunOnce(context.Background()); len(got) != 0 {
		t.Fatalf("expected no recorded results, got %+v", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := config.PollerConfig{
		Interval: 10 * time.Millisecond,
		Targets:  []config.PollerTarget{{Name: "api", Kind: "http", URL: "http://core/health"}},
	}
	store := &memoryStore{}
	p, err := New(cfg, map[string]Prober{"http": stubProber{status: StatusUp}}, store, discardLogger())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for store.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 2 polling rounds, got %d", store.count())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
