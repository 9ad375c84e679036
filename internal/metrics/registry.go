// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package metrics is the daemon's process-wide metrics registry:
// histograms, counters and gauges backed by prometheus/client_golang,
// exposed both as Prometheus text and as a JSON snapshot.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "sgn"

// Registry is the single process-wide Prometheus registry. All metrics
// in this package are registered against it via promauto.With(Registry).
var Registry = prometheus.NewRegistry()

// latencyBuckets is the fixed bucket set shared by every latency
// histogram: 10, 50, 100, 200, 500, 1000, 2000ms, +Inf.
var latencyBuckets = []float64{0.010, 0.050, 0.100, 0.200, 0.500, 1.000, 2.000}
