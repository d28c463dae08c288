package generator

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the generator's Prometheus instrumentation, registered on
// a Coordinator-owned registry rather than the global default one
// (SPEC_FULL.md §4.5): several generator runs in one process must not
// collide on metric registration.
type metrics struct {
	cyclesRun      prometheus.Counter
	cyclesAccepted prometheus.Counter
	finalQuality   prometheus.Gauge
	duration       prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		cyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoaid_generator_cycles_run_total",
			Help: "Coordinator cycles executed.",
		}),
		cyclesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "geoaid_generator_cycles_accepted_total",
			Help: "Coordinator cycles that adopted a new base assignment.",
		}),
		finalQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "geoaid_generator_final_quality",
			Help: "Total quality of the last accepted base assignment.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoaid_generator_run_duration_seconds",
			Help:    "Wall-clock duration of a Run call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.cyclesRun, m.cyclesAccepted, m.finalQuality, m.duration)
	return m
}
