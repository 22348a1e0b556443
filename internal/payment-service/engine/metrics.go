package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

type Metrics struct {
	deposits    *prometheus.CounterVec
	withdrawals *prometheus.CounterVec
	errorsBy    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics cria e registra os coletores do engine em reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_deposits_total",
			Help: "depósitos por status resultante",
		}, []string{"status"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_withdrawals_total",
			Help: "saques por evento do ciclo de vida",
		}, []string{"outcome"}),
		errorsBy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_engine_errors_total",
			Help: "erros por operação e tipo",
		}, []string{"op", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_engine_unit_seconds",
			Help:    "duração das unidades atômicas",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.deposits, m.withdrawals, m.errorsBy, m.duration)
	return m
}

func (m *Metrics) deposit(status ledger.RequestStatus) {
	if m != nil {
		m.deposits.WithLabelValues(string(status)).Inc()
	}
}

func (m *Metrics) withdrawal(outcome string) {
	if m != nil {
		m.withdrawals.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) observe(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(seconds)
	if err != nil {
		m.errorsBy.WithLabelValues(op, kindLabel(err)).Inc()
	}
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return "validation"
	case errors.Is(err, ledger.ErrNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrForbidden):
		return "forbidden"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrInvalidState):
		return "invalid_state"
	default:
		return "storage"
	}
}
