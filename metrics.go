package promptpoll

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics: Prometheus collectors updated by a Poller. A nil *Metrics records nothing.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration prometheus.Histogram
	InFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promptpoll_calls_total",
			Help: "Completed calls by outcome (success, failure).",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptpoll_call_duration_seconds",
			Help:    "Wall time of a single call including parsing.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 100},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "promptpoll_calls_in_flight",
			Help: "Calls currently waiting on the endpoint.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Calls, m.Duration, m.InFlight)
	}
	return m
}

func (m *Metrics) callStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) callFinished(r CallResult, took time.Duration) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.Duration.Observe(took.Seconds())
	outcome := outcomeSuccess
	if r.Err != nil {
		outcome = outcomeFailure
	}
	m.Calls.WithLabelValues(outcome).Inc()
}
