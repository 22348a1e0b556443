package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

// Valores monetários saem sempre como string com 2 casas ("1500.00")
func money(d decimal.Decimal) string { return d.StringFixed(ledger.Scale) }

type DepositView struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	Amount               string     `json:"amount"`
	PaymentMethod        string     `json:"paymentMethod"`
	Description          string     `json:"description"`
	Status               string     `json:"status"`
	TransactionReference string     `json:"transactionReference,omitempty"`
	SlipImage            string     `json:"slipImage,omitempty"`
	AdminNotes           string     `json:"adminNotes,omitempty"`
	ReviewedBy           string     `json:"reviewedBy,omitempty"`
	ApprovedAt           *time.Time `json:"approvedAt,omitempty"`
	RejectedAt           *time.Time `json:"rejectedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func Deposit(d ledger.DepositRequest) DepositView {
	return DepositView{
		ID:                   d.ID,
		UserID:               d.UserID,
		Amount:               money(d.Amount),
		PaymentMethod:        d.PaymentMethod,
		Description:          d.Description,
		Status:               string(d.Status),
		TransactionReference: d.TransactionReference,
		SlipImage:            d.SlipImage,
		AdminNotes:           d.AdminNotes,
		ReviewedBy:           d.ReviewedBy,
		ApprovedAt:           d.ApprovedAt,
		RejectedAt:           d.RejectedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

type WithdrawalView struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Amount          string     `json:"amount"`
	IBAN            string     `json:"iban"`
	IBANHolderName  string     `json:"ibanHolderName"`
	BankName        string     `json:"bankName"`
	Description     string     `json:"description"`
	PaymentMethod   string     `json:"paymentMethod"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	AdminNotes      string     `json:"adminNotes,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func Withdrawal(w ledger.WithdrawalRequest) WithdrawalView {
	return WithdrawalView{
		ID:              w.ID,
		UserID:          w.UserID,
		Amount:          money(w.Amount),
		IBAN:            w.IBAN,
		IBANHolderName:  w.IBANHolderName,
		BankName:        w.BankName,
		Description:     w.Description,
		PaymentMethod:   w.PaymentMethod,
		Status:          string(w.Status),
		RejectionReason: w.RejectionReason,
		AdminNotes:      w.AdminNotes,
		ReviewedBy:      w.ReviewedBy,
		ApprovedAt:      w.ApprovedAt,
		PaidAt:          w.PaidAt,
		CancelledAt:     w.CancelledAt,
		RejectedAt:      w.RejectedAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

type TransactionView struct {
	ID            string                     `json:"id"`
	TransactionID string                     `json:"transactionId"`
	UserID        string                     `json:"userId"`
	Type          string                     `json:"type"`
	Amount        string                     `json:"amount"`
	Status        string                     `json:"status"`
	PaymentMethod string                     `json:"paymentMethod"`
	Description   string                     `json:"description"`
	Metadata      ledger.TransactionMetadata `json:"metadata"`
	CreatedAt     time.Time                  `json:"createdAt"`
	UpdatedAt     time.Time                  `json:"updatedAt"`
}

// Transaction devolve nil quando não houve transação (ex.: depósito aguardando aprovação)
func Transaction(t *ledger.Transaction) *TransactionView {
	if t == nil {
		return nil
	}
	return &TransactionView{
		ID:            t.ID,
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Amount:        money(t.Amount),
		Status:        string(t.Status),
		PaymentMethod: t.PaymentMethod,
		Description:   t.Description,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type DepositResponse struct {
	Message        string           `json:"message"`
	DepositRequest DepositView      `json:"depositRequest"`
	NewBalance     *string          `json:"newBalance,omitempty"`
	Transaction    *TransactionView `json:"transaction,omitempty"`
}

type WithdrawalResponse struct {
	Message           string           `json:"message"`
	WithdrawalRequest WithdrawalView   `json:"withdrawalRequest"`
	NewBalance        string           `json:"newBalance,omitempty"`
	Transaction       *TransactionView `json:"transaction,omitempty"`
}

func Balance(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

func BalanceValue(d decimal.Decimal) string { return money(d) }

type DepositListResponse struct {
	DepositRequests []DepositView `json:"depositRequests"`
	Total           int           `json:"total"`
	TotalPages      int           `json:"totalPages"`
	CurrentPage     int           `json:"currentPage"`
}

type WithdrawalListResponse struct {
	WithdrawalRequests []WithdrawalView `json:"withdrawalRequests"`
	Total              int              `json:"total"`
	TotalPages         int              `json:"totalPages"`
	CurrentPage        int              `json:"currentPage"`
}

// PublicIban é o formato exibido ao usuário final, sem metadados de cadastro
type PublicIban struct {
	BankName      string `json:"bankName"`
	AccountHolder string `json:"accountHolder"`
	IBANNumber    string `json:"ibanNumber"`
}

type IbanView struct {
	ID            string    `json:"id"`
	BankName      string    `json:"bankName"`
	AccountHolder string    `json:"accountHolder"`
	IBANNumber    string    `json:"ibanNumber"`
	IsActive      bool      `json:"isActive"`
	AddedBy       string    `json:"addedBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func Iban(i ledger.Iban) IbanView {
	return IbanView{
		ID:            i.ID,
		BankName:      i.BankName,
		AccountHolder: i.AccountHolder,
		IBANNumber:    i.IBANNumber,
		IsActive:      i.IsActive,
		AddedBy:       i.AddedBy,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

type IbanInfo struct {
	IBAN          string   `json:"iban"`
	BankName      string   `json:"bankName"`
	AccountHolder string   `json:"accountHolder"`
	BranchCode    *string  `json:"branchCode"`
	Instructions  []string `json:"instructions"`
	MinAmount     float64  `json:"minAmount"`
	MaxAmount     float64  `json:"maxAmount"`
}

type IbanInfoResponse struct {
	IbanInfo IbanInfo     `json:"ibanInfo"`
	Ibans    []PublicIban `json:"ibans"`
}

type DepositMethod struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	NameEn    string  `json:"nameEn"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Available bool    `json:"available"`
	Image     string  `json:"image"`
}

type DepositMethodsResponse struct {
	Methods []DepositMethod `json:"methods"`
}

type UserView struct {
	ID             string `json:"id"`
	Balance        string `json:"balance"`
	TotalDeposits  string `json:"totalDeposits"`
	IBAN           string `json:"iban"`
	IBANHolderName string `json:"ibanHolderName"`
	BankName       string `json:"bankName"`
	Phone          string `json:"phone"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Status         string `json:"status"`
}

func User(u ledger.User) UserView {
	return UserView{
		ID:             u.ID,
		Balance:        money(u.Balance),
		TotalDeposits:  money(u.TotalDeposits),
		IBAN:           u.IBAN,
		IBANHolderName: u.IBANHolderName,
		BankName:       u.BankName,
		Phone:          u.Phone,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Status:         string(u.Status),
	}
}

type ProfileResponse struct {
	Message string   `json:"message"`
	User    UserView `json:"user"`
}

type IbanResponse struct {
	Message string   `json:"message,omitempty"`
	Iban    IbanView `json:"iban"`
}

type IbanListResponse struct {
	Ibans []IbanView `json:"ibans"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
