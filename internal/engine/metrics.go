package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCommitted  = "committed"
	outcomeRolledBack = "rolled_back"
	outcomeAborted    = "aborted"
)

// Metrics counts mutation outcomes and times remote calls.
// A nil *Metrics records nothing.
type Metrics struct {
	mutations *prometheus.CounterVec
	calls     *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_mutations_total",
			Help: "Board mutations by operation and outcome",
		}, []string{"op", "outcome"}),
		calls: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kanban_remote_call_duration_seconds",
			Help:    "Remote call latency by operation",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"op"}),
	}
}

func (m *Metrics) observeOutcome(op Op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(string(op), outcome).Inc()
}

func (m *Metrics) observeCall(op Op, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(string(op)).Observe(d.Seconds())
}
