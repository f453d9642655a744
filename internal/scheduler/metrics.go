package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional observability surface for a scheduler run. A nil
// *Metrics is safe to call methods on — every method is a no-op when the
// receiver or its registry is nil, so metrics wiring never becomes a hard
// dependency of the core scheduler.
type Metrics struct {
	dispatched *prometheus.CounterVec
	inFlight   prometheus.Gauge
	status     *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics registers Kite's scheduler metrics against reg and returns a
// handle. Passing a nil reg disables metrics entirely.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kite_segments_dispatched_total",
			Help: "Segments handed to the scheduler for dispatch, by ride.",
		}, []string{"ride"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kite_segments_in_flight",
			Help: "Segment bodies currently executing.",
		}),
		status: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kite_segment_results_total",
			Help: "Terminal segment results, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kite_segment_duration_seconds",
			Help:    "Segment body wall-clock duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.dispatched, m.inFlight, m.status, m.duration)
	return m
}

func (m *Metrics) recordDispatch(ride string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(ride).Inc()
}

func (m *Metrics) beginBody() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) endBody(status string, seconds float64) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.status.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}
