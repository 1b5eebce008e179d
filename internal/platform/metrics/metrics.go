package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/policy"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
)

// Registry はサービスの Prometheus メトリクスをまとめます。
type Registry struct {
	reg       *prometheus.Registry
	decisions *prometheus.CounterVec
	requests  *prometheus.HistogramVec
	limited   prometheus.Counter
}

// NewRegistry は専用レジストリにメトリクスを登録します。
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "personnel",
			Name:      "policy_decisions_total",
			Help:      "Access policy decisions by role, resource kind and effect.",
		}, []string{"role", "kind", "effect"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "personnel",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "personnel",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(
		r.decisions,
		r.requests,
		r.limited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveDecision は policy.Observer を実装します。
func (r *Registry) ObserveDecision(role account.Role, kind resource.Kind, effect policy.Effect) {
	r.decisions.WithLabelValues(string(role), string(kind), effect.String()).Inc()
}

// ObserveRequest は HTTP リクエストの所要時間を記録します。
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncRateLimited はレート制限による拒否を数えます。
func (r *Registry) IncRateLimited() {
	r.limited.Inc()
}

// Handler は /metrics 用のハンドラーを返します。
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer はテストや外部エクスポート向けにレジストリを公開します。
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
