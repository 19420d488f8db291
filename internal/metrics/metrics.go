package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal 按 agent 统计的路由请求数
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Total number of routed requests per agent",
		},
		[]string{"agent"},
	)

	// FallbacksTotal 生成失败后使用本地模板的次数
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_fallbacks_total",
			Help: "Total number of generation failures answered with the local template",
		},
		[]string{"stage"},
	)

	ScrapeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_scrape_failures_total",
			Help: "Total number of failed page fetches",
		},
	)

	// GenerationDuration 生成调用耗时，outcome 为 ok 或 error
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_generation_duration_seconds",
			Help:    "Duration of generation calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage", "outcome"},
	)

	ValidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_validation_failures_total",
			Help: "Total number of rejected requests with no usable field",
		},
	)
)
