package engine

import "github.com/prometheus/client_golang/prometheus"

func CounterFor(m *Metrics, name, label string) prometheus.Collector {
	if name == "payment_deposits_total" {
		return m.deposits.WithLabelValues(label)
	}
	return m.withdrawals.WithLabelValues(label)
}

func ErrorCounterFor(m *Metrics, op, kind string) prometheus.Collector {
	return m.errorsBy.WithLabelValues(op, kind)
}
