package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
	"github.com/radieske/payments-ledger/pkg/contracts/events"
)

const defaultWithdrawalDescription = "IBAN Çekim Talebi"

type WithdrawalInput struct {
	UserID      string
	Amount      decimal.Decimal
	Description string
}

// WithdrawalResult: Transaction é nil quando a transação ligada não existe
type WithdrawalResult struct {
	Request     ledger.WithdrawalRequest
	NewBalance  decimal.Decimal
	Transaction *ledger.Transaction
}

// SubmitWithdrawal reserva o valor (débito imediato) e abre o pedido de saque pendente
func (e *Engine) SubmitWithdrawal(ctx context.Context, in WithdrawalInput) (res WithdrawalResult, err error) {
	defer e.track("submit_withdrawal", time.Now(), &err)

	if err = ledger.CheckAmount(in.Amount, e.limits.Withdrawal, "withdrawal"); err != nil {
		return WithdrawalResult{}, err
	}

	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		u, err := tx.GetUserForUpdate(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !u.Status.CanMoveFunds() {
			return ledger.Forbidden("account is not allowed to withdraw")
		}
		if !u.HasPayoutAccount() {
			return ledger.Validation("please add your IBAN information in your profile first")
		}
		if u.DailyWithdrawLimit.Valid && in.Amount.GreaterThan(u.DailyWithdrawLimit.Decimal) {
			return ledger.Validation("amount exceeds daily withdrawal limit of %s", u.DailyWithdrawLimit.Decimal.StringFixed(ledger.Scale))
		}
		if u.Balance.LessThan(in.Amount) {
			return ledger.InsufficientFunds()
		}

		balance := u.Balance.Sub(in.Amount)
		if err := tx.UpdateUserBalance(ctx, u.ID, balance, u.TotalDeposits); err != nil {
			return err
		}

		now := e.now()
		w := ledger.WithdrawalRequest{
			ID:             uuid.NewString(),
			UserID:         u.ID,
			Amount:         in.Amount,
			IBAN:           u.IBAN,
			IBANHolderName: u.IBANHolderName,
			BankName:       u.BankName,
			Description:    orDefault(in.Description, defaultWithdrawalDescription),
			PaymentMethod:  ledger.MethodIBAN,
			Status:         ledger.StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.InsertWithdrawal(ctx, w); err != nil {
			return err
		}

		t := ledger.Transaction{
			ID:            uuid.NewString(),
			TransactionID: e.transactionRef("WD"),
			UserID:        u.ID,
			Type:          ledger.TxWithdrawal,
			Amount:        in.Amount,
			Status:        ledger.TxPending,
			PaymentMethod: ledger.MethodIBAN,
			Description:   fmt.Sprintf("Withdrawal request created (ID: %s)", w.ID),
			Metadata:      ledger.TransactionMetadata{WithdrawalRequestID: w.ID},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}

		res = WithdrawalResult{Request: w, NewBalance: balance, Transaction: &t}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	e.metrics.withdrawal("requested")
	e.log.Info("withdrawal request created",
		zap.String("userId", in.UserID),
		zap.String("withdrawalRequestId", res.Request.ID),
		zap.String("amount", in.Amount.StringFixed(ledger.Scale)))
	e.publish(ctx, withdrawalEvent(events.WithdrawalRequested, res, true, ""))
	return res, nil
}

// CancelWithdrawal devolve o valor reservado de um saque pendente do próprio usuário
func (e *Engine) CancelWithdrawal(ctx context.Context, userID, id string) (res WithdrawalResult, err error) {
	defer e.track("cancel_withdrawal", time.Now(), &err)

	if err = requireID(id, "withdrawal request"); err != nil {
		return WithdrawalResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.GetWithdrawalForUpdate(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindWithdrawal, w.Status, ledger.StatusCancelled); err != nil {
			return err
		}
		balance, err := e.refund(ctx, tx, w)
		if err != nil {
			return err
		}

		now := e.now()
		w.Status = ledger.StatusCancelled
		w.CancelledAt = &now
		w.UpdatedAt = now
		if err := tx.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}

		t, err := e.settleLinked(ctx, tx, ledger.KindWithdrawal, w.ID, ledger.TxCancelled, "Withdrawal cancelled by user")
		if err != nil {
			return err
		}
		res = WithdrawalResult{Request: w, NewBalance: balance, Transaction: t}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	e.metrics.withdrawal("cancelled")
	e.log.Info("withdrawal cancelled", zap.String("userId", userID), zap.String("withdrawalRequestId", id))
	e.publish(ctx, withdrawalEvent(events.WithdrawalCancelled, res, true, ""))
	return res, nil
}

func (e *Engine) refund(ctx context.Context, tx ledger.Tx, w ledger.WithdrawalRequest) (decimal.Decimal, error) {
	u, err := tx.GetUserForUpdate(ctx, w.UserID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	balance := u.Balance.Add(w.Amount)
	if err := tx.UpdateUserBalance(ctx, u.ID, balance, u.TotalDeposits); err != nil {
		return decimal.Decimal{}, err
	}
	return balance, nil
}

// ApproveWithdrawal marca o saque como aprovado; o valor continua reservado
func (e *Engine) ApproveWithdrawal(ctx context.Context, adminID, id, notes string) (res WithdrawalResult, err error) {
	defer e.track("approve_withdrawal", time.Now(), &err)

	if err = requireID(id, "withdrawal request"); err != nil {
		return WithdrawalResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.GetWithdrawalForUpdate(ctx, id, "")
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindWithdrawal, w.Status, ledger.StatusApproved); err != nil {
			return err
		}
		now := e.now()
		w.Status = ledger.StatusApproved
		w.ApprovedAt = &now
		w.ReviewedBy = adminID
		if notes != "" {
			w.AdminNotes = notes
		}
		w.UpdatedAt = now
		if err := tx.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}
		res = WithdrawalResult{Request: w}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	e.metrics.withdrawal("approved")
	e.log.Info("withdrawal approved", zap.String("adminId", adminID), zap.String("withdrawalRequestId", id))
	e.publish(ctx, withdrawalEvent(events.WithdrawalApproved, res, false, adminID))
	return res, nil
}

// RejectWithdrawal recusa um saque pendente e estorna o valor como no cancelamento
func (e *Engine) RejectWithdrawal(ctx context.Context, adminID, id, reason, notes string) (res WithdrawalResult, err error) {
	defer e.track("reject_withdrawal", time.Now(), &err)

	if err = requireID(id, "withdrawal request"); err != nil {
		return WithdrawalResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.GetWithdrawalForUpdate(ctx, id, "")
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindWithdrawal, w.Status, ledger.StatusRejected); err != nil {
			return err
		}
		balance, err := e.refund(ctx, tx, w)
		if err != nil {
			return err
		}

		now := e.now()
		w.Status = ledger.StatusRejected
		w.RejectedAt = &now
		w.RejectionReason = reason
		w.ReviewedBy = adminID
		if notes != "" {
			w.AdminNotes = notes
		}
		w.UpdatedAt = now
		if err := tx.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}

		t, err := e.settleLinked(ctx, tx, ledger.KindWithdrawal, w.ID, ledger.TxFailed, "Withdrawal rejected by admin")
		if err != nil {
			return err
		}
		res = WithdrawalResult{Request: w, NewBalance: balance, Transaction: t}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	e.metrics.withdrawal("rejected")
	e.log.Info("withdrawal rejected", zap.String("adminId", adminID), zap.String("withdrawalRequestId", id))
	e.publish(ctx, withdrawalEvent(events.WithdrawalRejected, res, true, adminID))
	return res, nil
}

// MarkWithdrawalPaid registra a saída do dinheiro de um saque aprovado
func (e *Engine) MarkWithdrawalPaid(ctx context.Context, adminID, id, notes string) (res WithdrawalResult, err error) {
	defer e.track("mark_withdrawal_paid", time.Now(), &err)

	if err = requireID(id, "withdrawal request"); err != nil {
		return WithdrawalResult{}, err
	}
	err = e.store.WithTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		w, err := tx.GetWithdrawalForUpdate(ctx, id, "")
		if err != nil {
			return err
		}
		if err := ledger.Transition(ledger.KindWithdrawal, w.Status, ledger.StatusPaid); err != nil {
			return err
		}
		now := e.now()
		w.Status = ledger.StatusPaid
		w.PaidAt = &now
		w.ReviewedBy = adminID
		if notes != "" {
			w.AdminNotes = notes
		}
		w.UpdatedAt = now
		if err := tx.UpdateWithdrawal(ctx, w); err != nil {
			return err
		}

		t, err := e.settleLinked(ctx, tx, ledger.KindWithdrawal, w.ID, ledger.TxCompleted, "")
		if err != nil {
			return err
		}
		res = WithdrawalResult{Request: w, Transaction: t}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}

	e.metrics.withdrawal("paid")
	e.log.Info("withdrawal paid", zap.String("adminId", adminID), zap.String("withdrawalRequestId", id))
	e.publish(ctx, withdrawalEvent(events.WithdrawalPaid, res, false, adminID))
	return res, nil
}

func withdrawalEvent(typ string, res WithdrawalResult, withBalance bool, actor string) events.PaymentEvent {
	ev := events.PaymentEvent{
		Type:      typ,
		RequestID: res.Request.ID,
		UserID:    res.Request.UserID,
		Amount:    res.Request.Amount.StringFixed(ledger.Scale),
		Status:    string(res.Request.Status),
		Actor:     actor,
	}
	if withBalance {
		ev.NewBalance = res.NewBalance.StringFixed(ledger.Scale)
	}
	if res.Transaction != nil {
		ev.TransactionID = res.Transaction.TransactionID
	}
	return ev
}
