package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

// UpdateProfile grava só os campos enviados; o IBAN é salvo sem espaços
func (e *Engine) UpdateProfile(ctx context.Context, userID string, p ledger.ProfileUpdate) (u ledger.User, err error) {
	defer e.track("update_profile", time.Now(), &err)

	if p.Empty() {
		return ledger.User{}, ledger.Validation("no profile fields provided")
	}
	if p.IBAN != nil {
		iban := ledger.NormalizeIBAN(*p.IBAN)
		if !ledger.ValidIBAN(iban) {
			return ledger.User{}, ledger.Validation("invalid IBAN format")
		}
		p.IBAN = &iban
	}
	return e.store.UpdateProfile(ctx, userID, p)
}

// ActiveIbans devolve as contas recebedoras ativas, mais recentes primeiro
func (e *Engine) ActiveIbans(ctx context.Context) (list []ledger.Iban, err error) {
	defer e.track("active_ibans", time.Now(), &err)

	if e.ibans == nil {
		return e.store.ActiveIbans(ctx)
	}
	return e.ibans.Active(ctx, e.store.ActiveIbans)
}

func (e *Engine) AllIbans(ctx context.Context) (list []ledger.Iban, err error) {
	defer e.track("all_ibans", time.Now(), &err)
	return e.store.AllIbans(ctx)
}

// AddIban cadastra uma conta recebedora ativa; número duplicado é erro de validação
func (e *Engine) AddIban(ctx context.Context, adminID, bankName, holder, number string) (i ledger.Iban, err error) {
	defer e.track("add_iban", time.Now(), &err)

	bankName, holder = strings.TrimSpace(bankName), strings.TrimSpace(holder)
	if bankName == "" || holder == "" {
		return ledger.Iban{}, ledger.Validation("bank name and account holder are required")
	}
	number = ledger.NormalizeIBAN(number)
	if !ledger.ValidIBAN(number) {
		return ledger.Iban{}, ledger.Validation("invalid IBAN format")
	}

	now := e.now()
	i = ledger.Iban{
		ID:            uuid.NewString(),
		BankName:      bankName,
		AccountHolder: holder,
		IBANNumber:    number,
		IsActive:      true,
		AddedBy:       adminID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = e.store.InsertIban(ctx, i); err != nil {
		return ledger.Iban{}, err
	}
	e.invalidateIbans(ctx)
	return i, nil
}

func (e *Engine) SetIbanActive(ctx context.Context, id string, active bool) (i ledger.Iban, err error) {
	defer e.track("set_iban_active", time.Now(), &err)

	if err = requireID(id, "iban"); err != nil {
		return ledger.Iban{}, err
	}
	if i, err = e.store.SetIbanActive(ctx, id, active); err != nil {
		return ledger.Iban{}, err
	}
	e.invalidateIbans(ctx)
	return i, nil
}

func (e *Engine) invalidateIbans(ctx context.Context) {
	if e.ibans == nil {
		return
	}
	if err := e.ibans.Invalidate(ctx); err != nil {
		e.log.Warn("invalidate iban cache", zap.Error(err))
	}
}
