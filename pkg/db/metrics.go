// pkg/db/metrics.go
package db

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session and transaction lifecycle events. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionsOpened *prometheus.CounterVec
	sessionsOpen   prometheus.Gauge
	transactions   *prometheus.CounterVec
	connErrors     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "membership",
			Subsystem: "db",
			Name:      "sessions_opened_total",
			Help:      "Sessions opened, by mode.",
		}, []string{"mode"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "membership",
			Subsystem: "db",
			Name:      "sessions_open",
			Help:      "Sessions currently holding a physical connection.",
		}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "membership",
			Subsystem: "db",
			Name:      "transactions_total",
			Help:      "Finished transactions, by outcome.",
		}, []string{"outcome"}),
		connErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "membership",
			Subsystem: "db",
			Name:      "connection_errors_total",
			Help:      "Failures to open a physical connection.",
		}),
	}
	for _, c := range []prometheus.Collector{m.sessionsOpened, m.sessionsOpen, m.transactions, m.connErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) sessionOpened(readOnly bool) {
	if m == nil {
		return
	}
	mode := "read_write"
	if readOnly {
		mode = "read_only"
	}
	m.sessionsOpened.WithLabelValues(mode).Inc()
	m.sessionsOpen.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.sessionsOpen.Dec()
}

func (m *Metrics) committed() {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues("commit").Inc()
}

func (m *Metrics) rolledBack() {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues("rollback").Inc()
}

func (m *Metrics) connectionFailed() {
	if m == nil {
		return
	}
	m.connErrors.Inc()
}
