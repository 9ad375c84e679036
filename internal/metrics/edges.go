package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EdgesInsert counts successful edge insertions (edges.insert).
var EdgesInsert = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "edges",
		Name:      "insert",
		Help:      "Total number of edges inserted into the graph store",
	},
)
