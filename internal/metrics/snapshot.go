package metrics

import (
	"math"
	"strconv"

	dto "github.com/prometheus/client_model/go"
)

// Snapshot is the JSON-friendly view returned by GET /metrics (without
// ?format=prom). It walks the registry rather than duplicating state,
// so it can never drift from what promhttp exposes.
type Snapshot struct {
	Counters   map[string]float64 `json:"counters"`
	Gauges     map[string]float64 `json:"gauges"`
	Histograms map[string]HistogramSnapshot `json:"histograms"`
}

type HistogramSnapshot struct {
	SampleCount uint64             `json:"sample_count"`
	SampleSum   float64            `json:"sample_sum"`
	Buckets     map[string]uint64  `json:"buckets"`
}

// TakeSnapshot gathers the registry into a JSON-serializable snapshot.
func TakeSnapshot() (*Snapshot, error) {
	families, err := Registry.Gather()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Counters:   make(map[string]float64),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string]HistogramSnapshot),
	}

	for _, mf := range families {
		name := mf.GetName()
		for _, m := range mf.GetMetric() {
			key := name
			if labels := m.GetLabel(); len(labels) > 0 {
				key = name + "{" + labelString(labels) + "}"
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				snap.Counters[key] = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				snap.Gauges[key] = m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				buckets := make(map[string]uint64, len(h.GetBucket()))
				for _, b := range h.GetBucket() {
					buckets[formatFloat(b.GetUpperBound())] = b.GetCumulativeCount()
				}
				snap.Histograms[key] = HistogramSnapshot{
					SampleCount: h.GetSampleCount(),
					SampleSum:   h.GetSampleSum(),
					Buckets:     buckets,
				}
			}
		}
	}

	return snap, nil
}

func labelString(labels []*dto.LabelPair) string {
	s := ""
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=" + l.GetValue()
	}
	return s
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
