package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WeatherAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_api_calls_total",
			Help: "Total WeatherAPI.com calls",
		},
		[]string{"endpoint", "status"},
	)

	WeatherAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherdash_api_latency_seconds",
			Help:    "WeatherAPI.com call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_fetches_total",
			Help: "Combined current+forecast fetches by outcome",
		},
		[]string{"outcome"},
	)

	StaleFetchesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherdash_stale_fetches_discarded_total",
			Help: "Fetch completions dropped because a newer fetch was issued",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_cache_lookups_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	QualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherdash_quality_flags_total",
			Help: "Implausible values seen in current readings by flag",
		},
		[]string{"flag"},
	)
)
