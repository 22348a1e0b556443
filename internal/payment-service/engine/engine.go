package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
	"github.com/radieske/payments-ledger/pkg/contracts/events"
)

// Publisher recebe os eventos já commitados
type Publisher interface {
	Publish(ctx context.Context, e events.PaymentEvent) error
}

// IbanCache guarda a lista de IBANs ativos; load é chamado no miss
type IbanCache interface {
	Active(ctx context.Context, load func(context.Context) ([]ledger.Iban, error)) ([]ledger.Iban, error)
	Invalidate(ctx context.Context) error
}

type Limits struct {
	Deposit    ledger.Bounds
	Withdrawal ledger.Bounds
}

func DefaultLimits() Limits {
	return Limits{
		Deposit:    ledger.NewBounds(100, 50000),
		Withdrawal: ledger.NewBounds(100, 50000),
	}
}

type Options struct {
	Limits    Limits
	Policy    ApprovalPolicy
	Publisher Publisher
	Ibans     IbanCache
	Metrics   *Metrics
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine concentra toda mutação de saldo, requisições e log de transações
type Engine struct {
	store   ledger.Store
	limits  Limits
	policy  ApprovalPolicy
	pub     Publisher
	ibans   IbanCache
	metrics *Metrics
	log     *zap.Logger
	now     func() time.Time
}

func New(store ledger.Store, opts Options) *Engine {
	e := &Engine{
		store:   store,
		limits:  opts.Limits,
		policy:  opts.Policy,
		pub:     opts.Publisher,
		ibans:   opts.Ibans,
		metrics: opts.Metrics,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if e.limits == (Limits{}) {
		e.limits = DefaultLimits()
	}
	if e.policy == nil {
		e.policy = ManualApproval{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine) Limits() Limits { return e.limits }

func (e *Engine) AutoApprove() bool { return e.policy.AutoApprove() }

// track normaliza o erro da operação para a taxonomia e registra métricas
func (e *Engine) track(op string, start time.Time, errp *error) {
	err := *errp
	if err != nil && !ledger.IsDomain(err) {
		err = ledger.Storage(err)
		*errp = err
	}
	if errors.Is(err, ledger.ErrStorage) {
		e.log.Error("ledger operation failed", zap.String("op", op), zap.Error(err))
	}
	e.metrics.observe(op, time.Since(start).Seconds(), err)
}

// publish só roda após o commit; falha de broker não desfaz o ledger
func (e *Engine) publish(ctx context.Context, ev events.PaymentEvent) {
	if e.pub == nil {
		return
	}
	ev.Ts = e.now()
	if err := e.pub.Publish(ctx, ev); err != nil {
		e.log.Warn("publish payment event",
			zap.String("type", ev.Type),
			zap.String("requestId", ev.RequestID),
			zap.Error(err))
	}
}

// settleLinked atualiza a transação ligada à requisição; ausência é tolerada
func (e *Engine) settleLinked(ctx context.Context, tx ledger.Tx, kind ledger.RequestKind, requestID string,
	status ledger.TransactionStatus, description string) (*ledger.Transaction, error) {
	t, err := tx.FindTransactionByRequest(ctx, kind, requestID)
	if errors.Is(err, ledger.ErrNotFound) {
		e.log.Warn("linked transaction not found",
			zap.String("kind", string(kind)),
			zap.String("requestId", requestID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Status = status
	if description != "" {
		t.Description = description
	}
	t.UpdatedAt = e.now()
	if err := tx.UpdateTransaction(ctx, t); err != nil {
		return nil, err
	}
	return &t, nil
}

// transactionRef gera o transactionId público, ex.: WD-1718000000000-3F9A1C2B
func (e *Engine) transactionRef(prefix string) string {
	rnd := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, e.now().UnixMilli(), rnd)
}

func requireID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ledger.NotFound(what)
	}
	return nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
