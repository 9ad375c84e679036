package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DBReadDuration observes db.read latency.
	DBReadDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "read_duration_seconds",
			Help:      "Latency of index-store reads",
			Buckets:   latencyBuckets,
		},
	)

	// DBWriteDuration observes db.write latency.
	DBWriteDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "write_duration_seconds",
			Help:      "Latency of index-store writes",
			Buckets:   latencyBuckets,
		},
	)

	// KUStoredTotal counts newly stored KUs (ku.stored_total).
	KUStoredTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ku",
			Name:      "stored_total",
			Help:      "Total number of newly stored knowledge units",
		},
	)

	// KUDeduplicatedTotal counts dedup hits (ku.deduplicated_total).
	KUDeduplicatedTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ku",
			Name:      "deduplicated_total",
			Help:      "Total number of publish calls that hit an existing CID",
		},
	)

	// FSKUsCount gauges the number of blob files on disk (fs.kus_count).
	FSKUsCount = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fs",
			Name:      "kus_count",
			Help:      "Number of raw KU blob files on disk",
		},
	)

	// ConsistencyMismatches gauges the last consistency probe result.
	ConsistencyMismatches = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "consistency",
			Name:      "mismatches",
			Help:      "Number of CIDs present in only one of filesystem/index at last probe",
		},
	)
)
