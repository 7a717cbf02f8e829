package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 传输层指标。级联引擎本身不打点，观测都收敛在边界上。
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookrec",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookrec",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookrec",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Hybrid cascade cache hits.",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookrec",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Hybrid cascade cache misses.",
	})
)
