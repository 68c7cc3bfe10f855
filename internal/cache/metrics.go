package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	// requestsTotal counts lookups by region and outcome (hit, miss, error).
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_requests_total",
			Help: "Cache lookups by region and result.",
		},
		[]string{"region", "result"},
	)

	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_evictions_total",
			Help: "Cache evictions by region.",
		},
		[]string{"region"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, evictionsTotal)
}

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)
