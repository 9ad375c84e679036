package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NetDelivered counts KU frames successfully pushed to a subscriber.
	NetDelivered = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "net",
			Name:      "delivered",
			Help:      "Total number of frames delivered to event subscribers",
		},
	)

	// NetAcked counts client ack frames received (net.acked).
	NetAcked = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "net",
			Name:      "acked",
			Help:      "Total number of ack frames received from subscribers",
		},
	)

	// NetDedup counts suppressed duplicate CIDs (net.dedup): publish
	// calls that hit an already-stored CID, and KU frames a subscriber
	// had already received.
	NetDedup = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "net",
			Name:      "dedup",
			Help:      "Total number of duplicate CIDs suppressed at publish or per subscriber",
		},
	)

	// EventsDrop counts dropped subscriber frames, by reason.
	EventsDrop = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "drop",
			Help:      "Total number of frames dropped due to backpressure",
		},
		[]string{"reason"}, // backpressure, health_backpressure
	)

	// WSClients gauges currently connected WebSocket subscribers.
	WSClients = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Number of currently connected /events subscribers",
		},
	)
)
