package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

const (
	userColumns = `id, balance, total_deposits, iban, iban_holder_name, bank_name, phone,
		first_name, last_name, daily_deposit_limit, daily_withdraw_limit, status, created_at, updated_at`

	depositColumns = `id, user_id, amount, payment_method, description, status, transaction_reference,
		slip_image, admin_notes, reviewed_by, approved_at, rejected_at, created_at, updated_at`

	withdrawalColumns = `id, user_id, amount, iban, iban_holder_name, bank_name, description, payment_method,
		status, rejection_reason, admin_notes, reviewed_by, approved_at, paid_at, cancelled_at, rejected_at,
		created_at, updated_at`

	transactionColumns = `id, transaction_id, user_id, type, amount, status, payment_method, description,
		metadata, created_at, updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// pgTx implementa ledger.Tx sobre uma *sql.Tx aberta pelo WithTx
type pgTx struct{ tx *sql.Tx }

func (t *pgTx) GetUserForUpdate(ctx context.Context, userID string) (ledger.User, error) {
	u, err := scanUser(t.tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, userID))
	return u, notFound(err, "user")
}

func (t *pgTx) UpdateUserBalance(ctx context.Context, userID string, balance, totalDeposits decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users SET balance=$1, total_deposits=$2, updated_at=now() WHERE id=$3`,
		balance, totalDeposits, userID)
	if err != nil {
		return err
	}
	return expectOne(res, "user")
}

func (t *pgTx) InsertDeposit(ctx context.Context, d ledger.DepositRequest) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO deposit_requests(`+depositColumns+`)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		d.ID, d.UserID, d.Amount, d.PaymentMethod, d.Description, string(d.Status), d.TransactionReference,
		d.SlipImage, d.AdminNotes, d.ReviewedBy, d.ApprovedAt, d.RejectedAt, d.CreatedAt, d.UpdatedAt)
	return err
}

func (t *pgTx) GetDepositForUpdate(ctx context.Context, id string) (ledger.DepositRequest, error) {
	d, err := scanDeposit(t.tx.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposit_requests WHERE id=$1 FOR UPDATE`, id))
	return d, notFound(err, "deposit request")
}

func (t *pgTx) UpdateDeposit(ctx context.Context, d ledger.DepositRequest) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE deposit_requests
		SET status=$1, admin_notes=$2, reviewed_by=$3, approved_at=$4, rejected_at=$5, updated_at=$6
		WHERE id=$7`,
		string(d.Status), d.AdminNotes, d.ReviewedBy, d.ApprovedAt, d.RejectedAt, d.UpdatedAt, d.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "deposit request")
}

func (t *pgTx) InsertWithdrawal(ctx context.Context, w ledger.WithdrawalRequest) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO withdrawal_requests(`+withdrawalColumns+`)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		w.ID, w.UserID, w.Amount, w.IBAN, w.IBANHolderName, w.BankName, w.Description, w.PaymentMethod,
		string(w.Status), w.RejectionReason, w.AdminNotes, w.ReviewedBy, w.ApprovedAt, w.PaidAt, w.CancelledAt,
		w.RejectedAt, w.CreatedAt, w.UpdatedAt)
	return err
}

// GetWithdrawalForUpdate com userID vazio não filtra por dono
func (t *pgTx) GetWithdrawalForUpdate(ctx context.Context, id, userID string) (ledger.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.tx.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests
		WHERE id=$1 AND ($2 = '' OR user_id = $2) FOR UPDATE`, id, userID))
	return w, notFound(err, "withdrawal request")
}

func (t *pgTx) UpdateWithdrawal(ctx context.Context, w ledger.WithdrawalRequest) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE withdrawal_requests
		SET status=$1, rejection_reason=$2, admin_notes=$3, reviewed_by=$4,
			approved_at=$5, paid_at=$6, cancelled_at=$7, rejected_at=$8, updated_at=$9
		WHERE id=$10`,
		string(w.Status), w.RejectionReason, w.AdminNotes, w.ReviewedBy,
		w.ApprovedAt, w.PaidAt, w.CancelledAt, w.RejectedAt, w.UpdatedAt, w.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "withdrawal request")
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr ledger.Transaction) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO transactions(`+transactionColumns+`)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		tr.ID, tr.TransactionID, tr.UserID, string(tr.Type), tr.Amount, string(tr.Status), tr.PaymentMethod,
		tr.Description, tr.Metadata, tr.CreatedAt, tr.UpdatedAt)
	return err
}

func (t *pgTx) FindTransactionByRequest(ctx context.Context, kind ledger.RequestKind, requestID string) (ledger.Transaction, error) {
	key := "depositRequestId"
	if kind == ledger.KindWithdrawal {
		key = "withdrawalRequestId"
	}
	tr, err := scanTransaction(t.tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE metadata->>'`+key+`' = $1 ORDER BY created_at LIMIT 1 FOR UPDATE`, requestID))
	return tr, notFound(err, "transaction")
}

func (t *pgTx) UpdateTransaction(ctx context.Context, tr ledger.Transaction) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE transactions SET status=$1, description=$2, updated_at=$3 WHERE id=$4`,
		string(tr.Status), tr.Description, tr.UpdatedAt, tr.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "transaction")
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.NotFound(what)
	}
	return nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func scanUser(row rowScanner) (ledger.User, error) {
	var u ledger.User
	var status string
	err := row.Scan(&u.ID, &u.Balance, &u.TotalDeposits, &u.IBAN, &u.IBANHolderName, &u.BankName, &u.Phone,
		&u.FirstName, &u.LastName, &u.DailyDepositLimit, &u.DailyWithdrawLimit, &status, &u.CreatedAt, &u.UpdatedAt)
	u.Status = ledger.UserStatus(status)
	return u, err
}

func scanDeposit(row rowScanner) (ledger.DepositRequest, error) {
	var d ledger.DepositRequest
	var status string
	var approvedAt, rejectedAt sql.NullTime
	err := row.Scan(&d.ID, &d.UserID, &d.Amount, &d.PaymentMethod, &d.Description, &status,
		&d.TransactionReference, &d.SlipImage, &d.AdminNotes, &d.ReviewedBy, &approvedAt, &rejectedAt,
		&d.CreatedAt, &d.UpdatedAt)
	d.Status = ledger.RequestStatus(status)
	d.ApprovedAt, d.RejectedAt = timePtr(approvedAt), timePtr(rejectedAt)
	return d, err
}

func scanWithdrawal(row rowScanner) (ledger.WithdrawalRequest, error) {
	var w ledger.WithdrawalRequest
	var status string
	var approvedAt, paidAt, cancelledAt, rejectedAt sql.NullTime
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.IBAN, &w.IBANHolderName, &w.BankName, &w.Description,
		&w.PaymentMethod, &status, &w.RejectionReason, &w.AdminNotes, &w.ReviewedBy,
		&approvedAt, &paidAt, &cancelledAt, &rejectedAt, &w.CreatedAt, &w.UpdatedAt)
	w.Status = ledger.RequestStatus(status)
	w.ApprovedAt, w.PaidAt = timePtr(approvedAt), timePtr(paidAt)
	w.CancelledAt, w.RejectedAt = timePtr(cancelledAt), timePtr(rejectedAt)
	return w, err
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var tr ledger.Transaction
	var typ, status string
	err := row.Scan(&tr.ID, &tr.TransactionID, &tr.UserID, &typ, &tr.Amount, &status, &tr.PaymentMethod,
		&tr.Description, &tr.Metadata, &tr.CreatedAt, &tr.UpdatedAt)
	tr.Type, tr.Status = ledger.TransactionType(typ), ledger.TransactionStatus(status)
	return tr, err
}
