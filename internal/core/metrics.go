package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Computation kinds used as metric labels.
const (
	KindArea   = "area"
	KindVolume = "volume"
	KindWeight = "weight"
	KindGrid   = "grid"
)

// Metrics holds the Prometheus collectors for computations.
type Metrics struct {
	computations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	skippedRows  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geocalc",
			Name:      "computations_total",
			Help:      "Computations by kind and result code.",
		}, []string{"kind", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geocalc",
			Name:      "computation_duration_seconds",
			Help:      "Time from request to result, including file reads.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		skippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geocalc",
			Name:      "csv_rows_skipped_total",
			Help:      "CSV rows dropped because x or y did not parse.",
		}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.computations, m.duration, m.skippedRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe records one finished computation. The code label is "OK" on
// success, else the MapError code.
func (m *Metrics) observe(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	code := "OK"
	if err != nil {
		code = MapError(err).Code
	}
	m.computations.WithLabelValues(kind, code).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedRows.Add(float64(n))
}
