package events

import "time"

// Tipos de evento publicados no tópico "payment_events"
const (
	DepositSubmitted    = "deposit_submitted"
	DepositApproved     = "deposit_approved"
	DepositRejected     = "deposit_rejected"
	WithdrawalRequested = "withdrawal_requested"
	WithdrawalCancelled = "withdrawal_cancelled"
	WithdrawalApproved  = "withdrawal_approved"
	WithdrawalRejected  = "withdrawal_rejected"
	WithdrawalPaid      = "withdrawal_paid"
)

// PaymentEvent é emitido após o commit de cada unidade do ledger.
// Valores monetários vão como string decimal ("150.00").
type PaymentEvent struct {
	Type          string    `json:"type"`
	RequestID     string    `json:"requestId"`
	UserID        string    `json:"userId"`
	Amount        string    `json:"amount"`
	Status        string    `json:"status"`
	NewBalance    string    `json:"newBalance,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	Actor         string    `json:"actor,omitempty"` // admin que revisou
	Ts            time.Time `json:"ts"`
}
