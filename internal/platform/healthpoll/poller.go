package healthpoll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

// Status は 1 回の疎通確認の結果区分です。
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

const (
	defaultInterval = 10 * time.Minute
	defaultTimeout  = 5 * time.Second
)

// Result は service_checks に記録される 1 行です。
type Result struct {
	Service      string
	URL          string
	Status       Status
	DBOK         bool
	ResponseTime time.Duration
	CheckedAt    time.Time
}

// Prober は対象へ 1 回問い合わせます。失敗は Result の Status で表します。
type Prober interface {
	Probe(ctx context.Context, url string) (Status, bool)
}

// Store は結果を永続化します。
type Store interface {
	Record(ctx context.Context, r Result) error
}

// Poller は設定された対象を定期的に確認し、結果を記録します。
type Poller struct {
	targets  []config.PollerTarget
	probers  map[string]Prober
	store    Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New は Poller を生成します。probers のキーは PollerTarget.Kind です。
func New(cfg config.PollerConfig, probers map[string]Prober, store Store, logger *slog.Logger) (*Poller, error) {
	for _, t := range cfg.Targets {
		if _, ok := probers[t.Kind]; !ok {
			return nil, fmt.Errorf("healthpoll: no prober for kind %q (target %s)", t.Kind, t.Name)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Poller{
		targets:  cfg.Targets,
		probers:  probers,
		store:    store,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run はコンテキストがキャンセルされるまで interval ごとに RunOnce を実行します。
func (p *Poller) Run(ctx context.Context) error {
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce は全対象を並行に確認し、記録できた結果を返します。
func (p *Poller) RunOnce(ctx context.Context) []Result {
	var g errgroup.Group
	checked := make([]*Result, len(p.targets))

	for i, target := range p.targets {
		g.Go(func() error {
			res := p.check(ctx, target)
			if err := p.store.Record(ctx, res); err != nil {
				p.logger.ErrorContext(ctx, "record service check failed",
					slog.String("service", res.Service), slog.Any("error", err))
				return nil
			}
			checked[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]Result, 0, len(checked))
	for _, res := range checked {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results
}

func (p *Poller) check(ctx context.Context, target config.PollerTarget) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	checkedAt := p.now()
	start := time.Now()
	status, dbOK := p.probers[target.Kind].Probe(ctx, target.URL)
	elapsed := time.Since(start)

	p.logger.DebugContext(ctx, "service checked",
		slog.String("service", target.Name),
		slog.String("status", string(status)),
		slog.Duration("elapsed", elapsed),
	)

	return Result{
		Service:      target.Name,
		URL:          target.URL,
		Status:       status,
		DBOK:         dbOK,
		ResponseTime: elapsed,
		CheckedAt:    checkedAt,
	}
}
