package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 聚合流程的 Prometheus 指标。所有方法对 nil 接收者安全，测试中可直接传 nil。
type Metrics struct {
	SourceFetches       *prometheus.CounterVec
	SourceItems         *prometheus.CounterVec
	FallbackItems       prometheus.Counter
	QuoteFallbacks      prometheus.Counter
	Aggregations        prometheus.Counter
	AggregationFailures prometheus.Counter
	AggregationDuration prometheus.Histogram
}

// New 在给定的 registerer 上注册指标；服务使用 app.NewRegistry 创建的独立注册表
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livenews_source_fetches_total",
				Help: "Source adapter calls by outcome (ok, empty, failed, skipped)",
			},
			[]string{"source", "status"},
		),
		SourceItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "livenews_source_items_accepted_total",
				Help: "Items accepted into aggregation results per source",
			},
			[]string{"source"},
		),
		FallbackItems: f.NewCounter(prometheus.CounterOpts{
			Name: "livenews_fallback_items_total",
			Help: "Fallback items appended to aggregation results",
		}),
		QuoteFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "livenews_quote_default_used_total",
			Help: "Times the static default quote replaced a failed price fetch",
		}),
		Aggregations: f.NewCounter(prometheus.CounterOpts{
			Name: "livenews_aggregations_total",
			Help: "Aggregation runs",
		}),
		AggregationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "livenews_aggregation_failures_total",
			Help: "Aggregation runs that ended in an aggregation failure",
		}),
		AggregationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "livenews_aggregation_duration_seconds",
			Help:    "Duration of aggregation runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) RecordSource(source, status string, accepted int) {
	if m == nil {
		return
	}
	m.SourceFetches.WithLabelValues(source, status).Inc()
	if accepted > 0 {
		m.SourceItems.WithLabelValues(source).Add(float64(accepted))
	}
}

func (m *Metrics) RecordFallback(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FallbackItems.Add(float64(n))
}

func (m *Metrics) RecordQuoteDefault() {
	if m == nil {
		return
	}
	m.QuoteFallbacks.Inc()
}

func (m *Metrics) RecordAggregation(seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.Aggregations.Inc()
	m.AggregationDuration.Observe(seconds)
	if failed {
		m.AggregationFailures.Inc()
	}
}
