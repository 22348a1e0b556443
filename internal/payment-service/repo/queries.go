package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

const ibanColumns = `id, bank_name, account_holder, iban_number, is_active, added_by, created_at, updated_at`

// filtro comum das listagens: dono + status opcional (já em minúsculas)
const ownerFilter = `WHERE user_id=$1 AND ($2 = '' OR lower(status) = $2)`

func (p *Postgres) ListDeposits(ctx context.Context, f ledger.ListFilter) ([]ledger.DepositRequest, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+depositColumns+` FROM deposit_requests `+ownerFilter+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, f.UserID, strings.ToLower(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.DepositRequest
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) CountDeposits(ctx context.Context, f ledger.ListFilter) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM deposit_requests `+ownerFilter,
		f.UserID, strings.ToLower(f.Status)).Scan(&n)
	return n, err
}

func (p *Postgres) ListWithdrawals(ctx context.Context, f ledger.ListFilter) ([]ledger.WithdrawalRequest, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests `+ownerFilter+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, f.UserID, strings.ToLower(f.Status), f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *Postgres) CountWithdrawals(ctx context.Context, f ledger.ListFilter) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM withdrawal_requests `+ownerFilter,
		f.UserID, strings.ToLower(f.Status)).Scan(&n)
	return n, err
}

// UpdateProfile monta o SET só com os campos presentes
func (p *Postgres) UpdateProfile(ctx context.Context, userID string, u ledger.ProfileUpdate) (ledger.User, error) {
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("iban", u.IBAN)
	add("iban_holder_name", u.IBANHolderName)
	add("bank_name", u.BankName)
	add("phone", u.Phone)
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	if len(sets) == 0 {
		return ledger.User{}, ledger.Validation("no profile fields provided")
	}
	args = append(args, userID)

	q := fmt.Sprintf(`UPDATE users SET %s, updated_at=now() WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)
	user, err := scanUser(p.db.QueryRowContext(ctx, q, args...))
	return user, notFound(err, "user")
}

func (p *Postgres) ActiveIbans(ctx context.Context) ([]ledger.Iban, error) {
	return p.queryIbans(ctx, `SELECT `+ibanColumns+` FROM ibans WHERE is_active ORDER BY created_at DESC`)
}

func (p *Postgres) AllIbans(ctx context.Context) ([]ledger.Iban, error) {
	return p.queryIbans(ctx, `SELECT `+ibanColumns+` FROM ibans ORDER BY created_at DESC`)
}

func (p *Postgres) queryIbans(ctx context.Context, q string) ([]ledger.Iban, error) {
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Iban
	for rows.Next() {
		i, err := scanIban(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertIban(ctx context.Context, i ledger.Iban) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO ibans(`+ibanColumns+`) VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		i.ID, i.BankName, i.AccountHolder, i.IBANNumber, i.IsActive, i.AddedBy, i.CreatedAt, i.UpdatedAt)
	if isUniqueViolation(err) {
		return ledger.Validation("iban already registered")
	}
	return err
}

func (p *Postgres) SetIbanActive(ctx context.Context, id string, active bool) (ledger.Iban, error) {
	i, err := scanIban(p.db.QueryRowContext(ctx,
		`UPDATE ibans SET is_active=$1, updated_at=now() WHERE id=$2 RETURNING `+ibanColumns, active, id))
	return i, notFound(err, "iban")
}

func scanIban(row rowScanner) (ledger.Iban, error) {
	var i ledger.Iban
	err := row.Scan(&i.ID, &i.BankName, &i.AccountHolder, &i.IBANNumber, &i.IsActive, &i.AddedBy,
		&i.CreatedAt, &i.UpdatedAt)
	return i, err
}

var _ ledger.Store = (*Postgres)(nil)
