// Package metrics exposes the Prometheus counters shared by the upstream
// clients and the cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "upstream_requests_total",
		Help:      "Requests sent to external services, by service and outcome.",
	}, []string{"service", "outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by namespace and result.",
	}, []string{"namespace", "result"})

	ImageResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "discovery",
		Name:      "image_resolutions_total",
		Help:      "Resolved place images by the strategy that produced them.",
	}, []string{"source"})
)

// Observe records the outcome of one upstream call.
func Observe(service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequests.WithLabelValues(service, outcome).Inc()
}

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "discovery",
	Name:      "http_requests_total",
	Help:      "Handled API requests by route and status class.",
}, []string{"route", "status"})
