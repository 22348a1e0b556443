package engine

import (
	"context"
	"time"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100
)

// ListQuery chega direto da query string; valores inválidos caem nos defaults
type ListQuery struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

type Page[T any] struct {
	Items       []T
	Total       int
	TotalPages  int
	CurrentPage int
	Limit       int
}

func paging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	return (total + limit - 1) / limit
}

// filter monta o filtro do store; ok=false quando o status não existe para o tipo
func filter(kind ledger.RequestKind, q ListQuery) (ledger.ListFilter, int, bool) {
	page, limit := paging(q.Page, q.Limit)
	f := ledger.ListFilter{UserID: q.UserID, Limit: limit, Offset: (page - 1) * limit}
	if q.Status != "" {
		s, ok := ledger.ParseStatus(kind, q.Status)
		if !ok {
			return f, page, false
		}
		f.Status = string(s)
	}
	return f, page, true
}

// ListDeposits lista os depósitos do usuário, mais recentes primeiro, sem notas internas
func (e *Engine) ListDeposits(ctx context.Context, q ListQuery) (p Page[ledger.DepositRequest], err error) {
	defer e.track("list_deposits", time.Now(), &err)

	f, page, ok := filter(ledger.KindDeposit, q)
	p = Page[ledger.DepositRequest]{Items: []ledger.DepositRequest{}, CurrentPage: page, Limit: f.Limit}
	if !ok {
		return p, nil
	}

	items, err := e.store.ListDeposits(ctx, f)
	if err != nil {
		return Page[ledger.DepositRequest]{}, err
	}
	total, err := e.store.CountDeposits(ctx, f)
	if err != nil {
		return Page[ledger.DepositRequest]{}, err
	}
	for i := range items {
		items[i].AdminNotes = ""
	}
	if items != nil {
		p.Items = items
	}
	p.Total = total
	p.TotalPages = totalPages(total, f.Limit)
	return p, nil
}

// ListWithdrawals lista os saques do usuário sem notas do admin nem motivo de recusa
func (e *Engine) ListWithdrawals(ctx context.Context, q ListQuery) (p Page[ledger.WithdrawalRequest], err error) {
	defer e.track("list_withdrawals", time.Now(), &err)

	f, page, ok := filter(ledger.KindWithdrawal, q)
	p = Page[ledger.WithdrawalRequest]{Items: []ledger.WithdrawalRequest{}, CurrentPage: page, Limit: f.Limit}
	if !ok {
		return p, nil
	}

	items, err := e.store.ListWithdrawals(ctx, f)
	if err != nil {
		return Page[ledger.WithdrawalRequest]{}, err
	}
	total, err := e.store.CountWithdrawals(ctx, f)
	if err != nil {
		return Page[ledger.WithdrawalRequest]{}, err
	}
	for i := range items {
		items[i].AdminNotes = ""
		items[i].RejectionReason = ""
	}
	if items != nil {
		p.Items = items
	}
	p.Total = total
	p.TotalPages = totalPages(total, f.Limit)
	return p, nil
}
