// Package metrics exposes Prometheus counters for the quoting workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// quote lifecycle transitions, labelled by operation
	TransitionsTotal *prometheus.CounterVec

	// notification dispatch outcomes, labelled by kind and outcome
	NotificationsTotal *prometheus.CounterVec

	// payment gateway callback results
	PaymentNotificationsTotal *prometheus.CounterVec
}

// New creates the metric set and registers it with the given registerer.
// Tests pass a private registry; the app passes the default one.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_transitions_total",
				Help: "Committed quote lifecycle transitions by operation.",
			},
			[]string{"operation"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_notifications_total",
				Help: "Notification dispatch attempts by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		PaymentNotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_notifications_total",
				Help: "Payment gateway callback results.",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.TransitionsTotal, m.NotificationsTotal, m.PaymentNotificationsTotal)

	return m
}

func (m *Metrics) Transition(operation string) {
	m.TransitionsTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) Notification(kind string, delivered bool) {
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) PaymentResult(result string) {
	m.PaymentNotificationsTotal.WithLabelValues(result).Inc()
}
