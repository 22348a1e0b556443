// Package ledgertest fornece um ledger.Store em memória para testes.
// Cada WithTx roda sob um mutex global e é desfeito por snapshot em caso de erro.
package ledgertest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

type Store struct {
	mu          sync.Mutex
	users       map[string]ledger.User
	deposits    map[string]ledger.DepositRequest
	withdrawals map[string]ledger.WithdrawalRequest
	txs         map[string]ledger.Transaction
	ibans       map[string]ledger.Iban

	// Fail injeta um erro na próxima chamada do método com esse nome
	Fail map[string]error
}

func New() *Store {
	return &Store{
		users:       map[string]ledger.User{},
		deposits:    map[string]ledger.DepositRequest{},
		withdrawals: map[string]ledger.WithdrawalRequest{},
		txs:         map[string]ledger.Transaction{},
		ibans:       map[string]ledger.Iban{},
		Fail:        map[string]error{},
	}
}

// AddUser cria um usuário ativo com saldo e conta de saque
func (s *Store) AddUser(id string, balance string) ledger.User {
	u := ledger.User{
		ID:             id,
		Balance:        decimal.RequireFromString(balance),
		TotalDeposits:  decimal.Zero,
		IBAN:           "TR330006100519786457841326",
		IBANHolderName: "Test User",
		BankName:       "Test Bank",
		Status:         ledger.UserActive,
		CreatedAt:      time.Now(),
	}
	s.PutUser(u)
	return u
}

func (s *Store) PutUser(u ledger.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) User(id string) ledger.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *Store) Deposit(id string) ledger.DepositRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deposits[id]
}

func (s *Store) Withdrawal(id string) ledger.WithdrawalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withdrawals[id]
}

func (s *Store) PutWithdrawal(w ledger.WithdrawalRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals[w.ID] = w
}

func (s *Store) PutDeposit(d ledger.DepositRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits[d.ID] = d
}

// Transactions devolve o log de um usuário em ordem de criação
func (s *Store) Transactions(userID string) []ledger.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range s.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DeleteTransactions remove o log ligado a uma requisição
func (s *Store) DeleteTransactions(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.txs {
		if t.Metadata.DepositRequestID == requestID || t.Metadata.WithdrawalRequestID == requestID {
			delete(s.txs, id)
		}
	}
}

func (s *Store) fail(name string) error {
	if err, ok := s.Fail[name]; ok {
		delete(s.Fail, name)
		return err
	}
	return nil
}

type snapshot struct {
	users       map[string]ledger.User
	deposits    map[string]ledger.DepositRequest
	withdrawals map[string]ledger.WithdrawalRequest
	txs         map[string]ledger.Transaction
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{clone(s.users), clone(s.deposits), clone(s.withdrawals), clone(s.txs)}
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.users, s.deposits, s.withdrawals, s.txs = snap.users, snap.deposits, snap.withdrawals, snap.txs
		return err
	}
	return nil
}

type memTx struct{ s *Store }

func (t *memTx) GetUserForUpdate(_ context.Context, userID string) (ledger.User, error) {
	if err := t.s.fail("GetUserForUpdate"); err != nil {
		return ledger.User{}, err
	}
	u, ok := t.s.users[userID]
	if !ok {
		return ledger.User{}, ledger.NotFound("user")
	}
	return u, nil
}

func (t *memTx) UpdateUserBalance(_ context.Context, userID string, balance, totalDeposits decimal.Decimal) error {
	if err := t.s.fail("UpdateUserBalance"); err != nil {
		return err
	}
	u, ok := t.s.users[userID]
	if !ok {
		return ledger.NotFound("user")
	}
	u.Balance, u.TotalDeposits = balance, totalDeposits
	t.s.users[userID] = u
	return nil
}

func (t *memTx) InsertDeposit(_ context.Context, d ledger.DepositRequest) error {
	if err := t.s.fail("InsertDeposit"); err != nil {
		return err
	}
	t.s.deposits[d.ID] = d
	return nil
}

func (t *memTx) GetDepositForUpdate(_ context.Context, id string) (ledger.DepositRequest, error) {
	d, ok := t.s.deposits[id]
	if !ok {
		return ledger.DepositRequest{}, ledger.NotFound("deposit request")
	}
	return d, nil
}

func (t *memTx) UpdateDeposit(_ context.Context, d ledger.DepositRequest) error {
	if err := t.s.fail("UpdateDeposit"); err != nil {
		return err
	}
	t.s.deposits[d.ID] = d
	return nil
}

func (t *memTx) InsertWithdrawal(_ context.Context, w ledger.WithdrawalRequest) error {
	if err := t.s.fail("InsertWithdrawal"); err != nil {
		return err
	}
	t.s.withdrawals[w.ID] = w
	return nil
}

func (t *memTx) GetWithdrawalForUpdate(_ context.Context, id, userID string) (ledger.WithdrawalRequest, error) {
	w, ok := t.s.withdrawals[id]
	if !ok || (userID != "" && w.UserID != userID) {
		return ledger.WithdrawalRequest{}, ledger.NotFound("withdrawal request")
	}
	return w, nil
}

func (t *memTx) UpdateWithdrawal(_ context.Context, w ledger.WithdrawalRequest) error {
	if err := t.s.fail("UpdateWithdrawal"); err != nil {
		return err
	}
	t.s.withdrawals[w.ID] = w
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr ledger.Transaction) error {
	if err := t.s.fail("InsertTransaction"); err != nil {
		return err
	}
	for _, existing := range t.s.txs {
		if existing.TransactionID == tr.TransactionID {
			return ledger.Validation("duplicate transaction id")
		}
	}
	t.s.txs[tr.ID] = tr
	return nil
}

func (t *memTx) FindTransactionByRequest(_ context.Context, kind ledger.RequestKind, requestID string) (ledger.Transaction, error) {
	for _, tr := range t.s.txs {
		if kind == ledger.KindDeposit && tr.Metadata.DepositRequestID == requestID {
			return tr, nil
		}
		if kind == ledger.KindWithdrawal && tr.Metadata.WithdrawalRequestID == requestID {
			return tr, nil
		}
	}
	return ledger.Transaction{}, ledger.NotFound("transaction")
}

func (t *memTx) UpdateTransaction(_ context.Context, tr ledger.Transaction) error {
	if err := t.s.fail("UpdateTransaction"); err != nil {
		return err
	}
	t.s.txs[tr.ID] = tr
	return nil
}

func page[T any](items []T, created func(T) time.Time, f ledger.ListFilter) []T {
	sort.Slice(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
	if f.Offset >= len(items) {
		return []T{}
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[f.Offset:end]
}

func owned(userID, status, wantUser, wantStatus string) bool {
	return userID == wantUser && (wantStatus == "" || strings.EqualFold(status, wantStatus))
}

func (s *Store) filterDeposits(f ledger.ListFilter) []ledger.DepositRequest {
	var out []ledger.DepositRequest
	for _, d := range s.deposits {
		if owned(d.UserID, string(d.Status), f.UserID, f.Status) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) filterWithdrawals(f ledger.ListFilter) []ledger.WithdrawalRequest {
	var out []ledger.WithdrawalRequest
	for _, w := range s.withdrawals {
		if owned(w.UserID, string(w.Status), f.UserID, f.Status) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Store) ListDeposits(_ context.Context, f ledger.ListFilter) ([]ledger.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListDeposits"); err != nil {
		return nil, err
	}
	return page(s.filterDeposits(f), func(d ledger.DepositRequest) time.Time { return d.CreatedAt }, f), nil
}

func (s *Store) CountDeposits(_ context.Context, f ledger.ListFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filterDeposits(f)), nil
}

func (s *Store) ListWithdrawals(_ context.Context, f ledger.ListFilter) ([]ledger.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ListWithdrawals"); err != nil {
		return nil, err
	}
	return page(s.filterWithdrawals(f), func(w ledger.WithdrawalRequest) time.Time { return w.CreatedAt }, f), nil
}

func (s *Store) CountWithdrawals(_ context.Context, f ledger.ListFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filterWithdrawals(f)), nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, p ledger.ProfileUpdate) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ledger.User{}, ledger.NotFound("user")
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.IBAN, p.IBAN)
	set(&u.IBANHolderName, p.IBANHolderName)
	set(&u.BankName, p.BankName)
	set(&u.Phone, p.Phone)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	s.users[userID] = u
	return u, nil
}

func (s *Store) ActiveIbans(_ context.Context) ([]ledger.Iban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ActiveIbans"); err != nil {
		return nil, err
	}
	var out []ledger.Iban
	for _, i := range s.ibans {
		if i.IsActive {
			out = append(out, i)
		}
	}
	return page(out, func(i ledger.Iban) time.Time { return i.CreatedAt }, ledger.ListFilter{}), nil
}

func (s *Store) AllIbans(_ context.Context) ([]ledger.Iban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Iban
	for _, i := range s.ibans {
		out = append(out, i)
	}
	return page(out, func(i ledger.Iban) time.Time { return i.CreatedAt }, ledger.ListFilter{}), nil
}

func (s *Store) InsertIban(_ context.Context, i ledger.Iban) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ibans {
		if existing.IBANNumber == i.IBANNumber {
			return ledger.Validation("iban already registered")
		}
	}
	s.ibans[i.ID] = i
	return nil
}

func (s *Store) SetIbanActive(_ context.Context, id string, active bool) (ledger.Iban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.ibans[id]
	if !ok {
		return ledger.Iban{}, ledger.NotFound("iban")
	}
	i.IsActive = active
	s.ibans[id] = i
	return i, nil
}
