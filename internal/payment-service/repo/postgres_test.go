package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgres(db), mock
}

var userCols = []string{"id", "balance", "total_deposits", "iban", "iban_holder_name", "bank_name", "phone",
	"first_name", "last_name", "daily_deposit_limit", "daily_withdraw_limit", "status", "created_at", "updated_at"}

func userRow(id, balance string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(id, balance, "0.00", "TR330006100519786457841326", "Ayse Yilmaz",
		"Ziraat", "", "Ayse", "Yilmaz", nil, "2000.00", "active", now, now)
}

func TestWithTxCommitsUnit(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM users WHERE id=\$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(userRow("u1", "1000.00"))
	mock.ExpectExec(`UPDATE users SET balance=\$1, total_deposits=\$2`).
		WithArgs(decimal.RequireFromString("700"), decimal.Zero, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		u, err := tx.GetUserForUpdate(ctx, "u1")
		if err != nil {
			return err
		}
		assert.True(t, u.Balance.Equal(decimal.RequireFromString("1000")))
		assert.False(t, u.DailyDepositLimit.Valid)
		assert.True(t, u.DailyWithdrawLimit.Valid)
		assert.Equal(t, ledger.UserActive, u.Status)
		return tx.UpdateUserBalance(ctx, "u1", u.Balance.Sub(decimal.NewFromInt(300)), u.TotalDeposits)
	})
	require.NoError(t, err)
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE id=\$1 FOR UPDATE`).
		WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE id=\$1 FOR UPDATE`).
		WillReturnRows(userRow("u1", "50.00"))
	mock.ExpectCommit()

	calls := 0
	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		calls++
		_, err := tx.GetUserForUpdate(ctx, "u1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithTxGivesUpAfterMaxAttempts(t *testing.T) {
	p, mock := newMock(t)

	for i := 0; i < maxAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(&pq.Error{Code: "40P01", Message: "deadlock detected"})
	}

	calls := 0
	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		calls++
		return nil
	})
	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("40P01"), pqErr.Code)
	assert.Equal(t, maxAttempts, calls)
}

func TestWithTxRollsBackOnDomainError(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users WHERE id=\$1 FOR UPDATE`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	calls := 0
	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		calls++
		_, err := tx.GetUserForUpdate(ctx, "ghost")
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestGetWithdrawalForUpdateScopesOwner(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM withdrawal_requests\s+WHERE id=\$1 AND \(\$2 = '' OR user_id = \$2\) FOR UPDATE`).
		WithArgs("w1", "u2").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		_, err := tx.GetWithdrawalForUpdate(ctx, "w1", "u2")
		return err
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, "withdrawal request not found", ledger.PublicMessage(err))
}

func TestFindTransactionByRequest(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM transactions\s+WHERE metadata->>'withdrawalRequestId' = \$1`).
		WithArgs("w1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_id", "user_id", "type", "amount", "status",
			"payment_method", "description", "metadata", "created_at", "updated_at"}).
			AddRow("t1", "WD-1-ABC", "u1", "withdrawal", "300.00", "pending", "iban", "created",
				[]byte(`{"withdrawalRequestId":"w1"}`), now, now))
	mock.ExpectExec(`UPDATE transactions SET status=\$1, description=\$2`).
		WithArgs("cancelled", "Withdrawal cancelled by user", sqlmock.AnyArg(), "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		tr, err := tx.FindTransactionByRequest(ctx, ledger.KindWithdrawal, "w1")
		if err != nil {
			return err
		}
		assert.Equal(t, "w1", tr.Metadata.WithdrawalRequestID)
		assert.Equal(t, ledger.TxPending, tr.Status)
		tr.Status = ledger.TxCancelled
		tr.Description = "Withdrawal cancelled by user"
		tr.UpdatedAt = now
		return tx.UpdateTransaction(ctx, tr)
	})
	require.NoError(t, err)
}

func TestUpdateWithdrawalMissingRow(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE withdrawal_requests`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := p.WithTx(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.UpdateWithdrawal(ctx, ledger.WithdrawalRequest{ID: "w1", Status: ledger.StatusCancelled})
	})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestListWithdrawalsFilters(t *testing.T) {
	p, mock := newMock(t)
	now := time.Now()

	cols := []string{"id", "user_id", "amount", "iban", "iban_holder_name", "bank_name", "description",
		"payment_method", "status", "rejection_reason", "admin_notes", "reviewed_by", "approved_at", "paid_at",
		"cancelled_at", "rejected_at", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM withdrawal_requests WHERE user_id=\$1 AND \(\$2 = '' OR lower\(status\) = \$2\)\s+ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("u1", "cancelled", 50, 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("w1", "u1", "150.00", "TR330006100519786457841326", "Ayse",
			"Ziraat", "IBAN Çekim Talebi", "iban", "cancelled", "", "", "", nil, nil, now, nil, now, now))

	items, err := p.ListWithdrawals(context.Background(), ledger.ListFilter{UserID: "u1", Status: "CANCELLED", Limit: 50, Offset: 50})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ledger.StatusCancelled, items[0].Status)
	require.NotNil(t, items[0].CancelledAt)
	assert.Nil(t, items[0].ApprovedAt)

	mock.ExpectQuery(`SELECT count\(\*\) FROM withdrawal_requests`).
		WithArgs("u1", "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))
	n, err := p.CountWithdrawals(context.Background(), ledger.ListFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 120, n)
}

func TestUpdateProfileOnlyProvidedFields(t *testing.T) {
	p, mock := newMock(t)
	iban, phone := "TR330006100519786457841326", "+905551112233"

	mock.ExpectQuery(`UPDATE users SET iban=\$1, phone=\$2, updated_at=now\(\) WHERE id=\$3 RETURNING`).
		WithArgs(iban, phone, "u1").
		WillReturnRows(userRow("u1", "10.00"))

	u, err := p.UpdateProfile(context.Background(), "u1", ledger.ProfileUpdate{IBAN: &iban, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = p.UpdateProfile(context.Background(), "u1", ledger.ProfileUpdate{})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestInsertIbanDuplicate(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO ibans`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := p.InsertIban(context.Background(), ledger.Iban{ID: "i1", IBANNumber: "TR330006100519786457841326"})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestSetIbanActiveMissing(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(`UPDATE ibans SET is_active=\$1`).
		WithArgs(false, "i1").
		WillReturnError(sql.ErrNoRows)

	_, err := p.SetIbanActive(context.Background(), "i1", false)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
