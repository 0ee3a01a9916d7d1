// Package telemetry holds the Prometheus collectors shared by the search,
// refresh and rate-limit paths. They register with the default registry and
// are served by promhttp on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flytogether",
		Name:      "search_requests_total",
		Help:      "Upstream flight-offer searches by outcome.",
	}, []string{"outcome"})

	RefreshOffers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flytogether",
		Name:      "refresh_offers_total",
		Help:      "Wishlist offers processed by refresh, by result (refreshed, unmatched, skipped, expired).",
	}, []string{"result"})

	RefreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flytogether",
		Name:      "refresh_runs_total",
		Help:      "Wishlist refresh runs by outcome.",
	}, []string{"outcome"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flytogether",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the per-identity rate limiter.",
	}, []string{"route"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flytogether",
		Name:      "upstream_request_seconds",
		Help:      "Latency of calls to the flight-data provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
)
