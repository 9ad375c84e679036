package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OutboxDeliveries counts successful outbox deliveries.
	OutboxDeliveries = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "deliveries",
			Help:      "Total number of successful outbox deliveries",
		},
	)

	// OutboxRetries counts delivery attempts that failed and were rescheduled.
	OutboxRetries = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "retries",
			Help:      "Total number of outbox delivery retries",
		},
	)

	// OutboxReady gauges items with next_try_at <= now.
	OutboxReady = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "ready",
			Help:      "Number of outbox items ready for delivery",
		},
	)

	// OutboxStalled gauges items dropped after exceeding max attempts.
	OutboxStalled = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "stalled",
			Help:      "Number of outbox items dropped after exceeding the retry budget",
		},
	)
)
