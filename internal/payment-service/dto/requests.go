package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

// DepositRequest aceita número ou string em amount; referência e comprovante têm nomes alternativos
type DepositRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description" validate:"max=500"`
	TransactionID        string          `json:"transactionId" validate:"max=100"`
	TransactionReference string          `json:"transactionReference" validate:"max=100"`
	SlipImage            string          `json:"slipImage" validate:"max=2048"`
	ScreenshotURL        string          `json:"screenshotUrl" validate:"max=2048"`
}

func (r DepositRequest) Reference() string {
	if r.TransactionID != "" {
		return r.TransactionID
	}
	return r.TransactionReference
}

func (r DepositRequest) Slip() string {
	if r.SlipImage != "" {
		return r.SlipImage
	}
	return r.ScreenshotURL
}

type WithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

// ProfileRequest usa ponteiros: campo ausente não é alterado
type ProfileRequest struct {
	IBAN           *string `json:"iban" validate:"omitempty,iban"`
	IBANHolderName *string `json:"ibanHolderName" validate:"omitempty,max=200"`
	BankName       *string `json:"bankName" validate:"omitempty,max=200"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	FirstName      *string `json:"firstName" validate:"omitempty,max=100"`
	LastName       *string `json:"lastName" validate:"omitempty,max=100"`
}

func (r ProfileRequest) Update() ledger.ProfileUpdate {
	return ledger.ProfileUpdate{
		IBAN:           r.IBAN,
		IBANHolderName: r.IBANHolderName,
		BankName:       r.BankName,
		Phone:          r.Phone,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
	}
}

type ReviewRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type AddIbanRequest struct {
	BankName      string `json:"bankName" validate:"required,max=200"`
	AccountHolder string `json:"accountHolder" validate:"required,max=200"`
	IBANNumber    string `json:"ibanNumber" validate:"required,iban"`
}

type SetIbanActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
