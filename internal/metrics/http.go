package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPPublishDuration observes http.publish latency.
	HTTPPublishDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "publish_duration_seconds",
			Help:      "Latency of POST /publish requests",
			Buckets:   latencyBuckets,
		},
	)

	// HTTPPublishCount counts http.publish requests.
	HTTPPublishCount = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "publish_count",
			Help:      "Total number of POST /publish requests",
		},
	)

	// HTTPVerifyDuration observes http.verify latency.
	HTTPVerifyDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "verify_duration_seconds",
			Help:      "Latency of POST /verify requests",
			Buckets:   latencyBuckets,
		},
	)

	// HTTPVerifyCount counts http.verify requests.
	HTTPVerifyCount = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "verify_count",
			Help:      "Total number of POST /verify requests",
		},
	)

	// GraphRequests counts /graph/:cid requests (graph.req).
	GraphRequests = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "req_total",
			Help:      "Total number of graph traversal requests",
		},
	)
)
