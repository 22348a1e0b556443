package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
	"github.com/radieske/payments-ledger/pkg/contracts/events"
)

const (
	defaultDepositDescription = "IBAN Havale/EFT"
	autoApprovedNote          = "Auto-approved in development"
)

type DepositInput struct {
	UserID               string
	Amount               decimal.Decimal
	Description          string
	TransactionReference string
	SlipImage            string
}

// DepositResult traz saldo e transação apenas quando o crédito aconteceu
type DepositResult struct {
	Request     ledger.DepositRequest
	NewBalance  *decimal.Decimal
	Transaction *ledger.Transaction
}

// SubmitDeposit registra o pedido de depósito e, conforme a política, já credita o saldo
func (e *Engine) SubmitDeposit(ctx context.Context, in DepositInput) (res DepositResult, err error) {
	defer e.track("submit_deposit", time.Now(), &err)

	if err = ledger.CheckAmount(in.Amount, e.limits.Deposit, "deposit"); err != nil {
		return DepositResult{}, err
	}
	auto := e.policy.AutoApprove()

	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		u, err := tx.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !u.Status.CanMoveFunds() {
			return ledger.Forbidden("account is not allowed to deposit")
		}
		if u.DailyDepositLimit.Valid && in.Amount.GreaterThan(u.DailyDepositLimit.Decimal) {
			return ledger.Validation("amount exceeds daily deposit limit of %s", u.DailyDepositLimit.Decimal.StringFixed(ledger.Scale))
		}

		now := e.now()
		d := ledger.DepositRequest{
			ID:                   uuid.NewString(),
			UserID:               u.ID,
			Amount:               in.Amount,
			PaymentMethod:        ledger.MethodIBAN,
			Description:          orDefault(in.Description, defaultDepositDescription),
			Status:               ledger.StatusPending,
			TransactionReference: in.TransactionReference,
			SlipImage:            in.SlipImage,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if auto {
			d.Status = ledger.StatusApproved
			d.ApprovedAt = &now
			d.AdminNotes = autoApprovedNote
		}
		if err := tx.InsertDeposit(ctx, d); err != nil {
			return err
		}
		res = DepositResult{Request: d}
		if !auto {
			return nil
		}

		t, balance, err := e.credit(ctx, tx, u, d, true)
		if err != nil {
			return err
		}
		res.NewBalance = &balance
		res.Transaction = &t
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}

	e.metrics.deposit(res.Request.Status)
	e.log.Info("deposit request created",
		zap.String("userId", in.UserID),
		zap.String("depositRequestId", res.Request.ID),
		zap.String("amount", in.Amount.StringFixed(ledger.Scale)),
		zap.Bool("autoApproved", auto))
	typ := events.DepositSubmitted
	if auto {
		typ = events.DepositApproved
	}
	e.publish(ctx, depositEvent(typ, res, ""))
	return res, nil
}

// credit soma o valor ao saldo e ao total depositado e grava a transação concluída
func (e *Engine) credit(ctx context.Context, tx ledger.Tx, u ledger.User, d ledger.DepositRequest, auto bool) (ledger.Transaction, decimal.Decimal, error) {
	balance := u.Balance.Add(d.Amount)
	if err := tx.UpdateUserBalance(ctx, u.ID, balance, u.TotalDeposits.Add(d.Amount)); err != nil {
		return ledger.Transaction{}, decimal.Decimal{}, err
	}

	desc := "IBAN deposit (approved)"
	if auto {
		desc = "IBAN deposit (auto-approved)"
	}
	now := e.now()
	t := ledger.Transaction{
		ID:            uuid.NewString(),
		TransactionID: e.transactionRef("DEP"),
		UserID:        u.ID,
		Type:          ledger.TxDeposit,
		Amount:        d.Amount,
		Status:        ledger.TxCompleted,
		PaymentMethod: ledger.MethodBankTransfer,
		Description:   desc,
		Metadata:      ledger.TransactionMetadata{DepositRequestID: d.ID, AutoApproved: auto},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return ledger.Transaction{}, decimal.Decimal{}, err
	}
	return t, balance, nil
}

// ApproveDeposit aprova um depósito pendente e credita o saldo do dono
func (e *Engine) ApproveDeposit(ctx context.Context, adminID, id, notes string) (res DepositResult, err error) {
	defer e.track("approve_deposit", time.Now(), &err)

	if err = requireID(id, "deposit request"); err != nil {
		return DepositResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		d, err := tx.GetDepositForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindDeposit, d.Status, ledger.StatusApproved); err != nil {
			return err
		}
		u, err := tx.GetUserForUpdate(ctx, d.UserID)
		if err != nil {
			return err
		}

		now := e.now()
		d.Status = ledger.StatusApproved
		d.ApprovedAt = &now
		d.ReviewedBy = adminID
		if notes != "" {
			d.AdminNotes = notes
		}
		d.UpdatedAt = now
		if err := tx.UpdateDeposit(ctx, d); err != nil {
			return err
		}

		t, balance, err := e.credit(ctx, tx, u, d, false)
		if err != nil {
			return err
		}
		res = DepositResult{Request: d, NewBalance: &balance, Transaction: &t}
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}

	e.metrics.deposit(ledger.StatusApproved)
	e.log.Info("deposit approved", zap.String("adminId", adminID), zap.String("depositRequestId", id))
	e.publish(ctx, depositEvent(events.DepositApproved, res, adminID))
	return res, nil
}

// RejectDeposit recusa um depósito pendente; o saldo não muda
func (e *Engine) RejectDeposit(ctx context.Context, adminID, id, notes string) (res DepositResult, err error) {
	defer e.track("reject_deposit", time.Now(), &err)

	if err = requireID(id, "deposit request"); err != nil {
		return DepositResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		d, err := tx.GetDepositForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindDeposit, d.Status, ledger.StatusRejected); err != nil {
			return err
		}
		now := e.now()
		d.Status = ledger.StatusRejected
		d.RejectedAt = &now
		d.ReviewedBy = adminID
		if notes != "" {
			d.AdminNotes = notes
		}
		d.UpdatedAt = now
		if err := tx.UpdateDeposit(ctx, d); err != nil {
			return err
		}
		res = DepositResult{Request: d}
		return nil
	})
	if err != nil {
		return DepositResult{}, err
	}

	e.metrics.deposit(ledger.StatusRejected)
	e.log.Info("deposit rejected", zap.String("adminId", adminID), zap.String("depositRequestId", id))
	e.publish(ctx, depositEvent(events.DepositRejected, res, adminID))
	return res, nil
}

func depositEvent(typ string, res DepositResult, actor string) events.PaymentEvent {
	ev := events.PaymentEvent{
		Type:      typ,
		RequestID: res.Request.ID,
		UserID:    res.Request.UserID,
		Amount:    res.Request.Amount.StringFixed(ledger.Scale),
		Status:    string(res.Request.Status),
		Actor:     actor,
	}
	if res.NewBalance != nil {
		ev.NewBalance = res.NewBalance.StringFixed(ledger.Scale)
	}
	if res.Transaction != nil {
		ev.TransactionID = res.Transaction.TransactionID
	}
	return ev
}
