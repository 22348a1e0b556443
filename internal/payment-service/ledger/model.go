package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type UserStatus string

const (
	UserActive       UserStatus = "active"
	UserSelfExcluded UserStatus = "self_excluded"
	UserBanned       UserStatus = "banned"
)

// CanMoveFunds indica se o status da conta permite depósito/saque
func (s UserStatus) CanMoveFunds() bool {
	return s != UserSelfExcluded && s != UserBanned
}

// User é a visão de carteira do usuário; o saldo só muda pelo engine
type User struct {
	ID                 string
	Balance            decimal.Decimal
	TotalDeposits      decimal.Decimal
	IBAN               string
	IBANHolderName     string
	BankName           string
	Phone              string
	FirstName          string
	LastName           string
	DailyDepositLimit  decimal.NullDecimal
	DailyWithdrawLimit decimal.NullDecimal
	Status             UserStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (u User) HasPayoutAccount() bool {
	return u.IBAN != "" && u.IBANHolderName != ""
}

type RequestKind string

const (
	KindDeposit    RequestKind = "deposit"
	KindWithdrawal RequestKind = "withdrawal"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusPaid      RequestStatus = "paid"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

const (
	MethodIBAN         = "iban"
	MethodBankTransfer = "bank_transfer"
)

type DepositRequest struct {
	ID                   string
	UserID               string
	Amount               decimal.Decimal
	PaymentMethod        string
	Description          string
	Status               RequestStatus
	TransactionReference string
	SlipImage            string
	AdminNotes           string
	ReviewedBy           string
	ApprovedAt           *time.Time
	RejectedAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type WithdrawalRequest struct {
	ID              string
	UserID          string
	Amount          decimal.Decimal
	IBAN            string
	IBANHolderName  string
	BankName        string
	Description     string
	PaymentMethod   string
	Status          RequestStatus
	RejectionReason string
	AdminNotes      string
	ReviewedBy      string
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	CancelledAt     *time.Time
	RejectedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxCancelled TransactionStatus = "cancelled"
	TxFailed    TransactionStatus = "failed"
)

// Transaction é uma entrada do log de auditoria (append-only)
type Transaction struct {
	ID            string
	TransactionID string
	UserID        string
	Type          TransactionType
	Amount        decimal.Decimal
	Status        TransactionStatus
	PaymentMethod string
	Description   string
	Metadata      TransactionMetadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransactionMetadata guarda a referência para a requisição de origem (coluna JSONB)
type TransactionMetadata struct {
	DepositRequestID    string `json:"depositRequestId,omitempty"`
	WithdrawalRequestID string `json:"withdrawalRequestId,omitempty"`
	AutoApproved        bool   `json:"autoApproved,omitempty"`
}

func (m TransactionMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *TransactionMetadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = TransactionMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("ledger: unsupported metadata type")
	}
}

// Iban é uma conta recebedora da empresa
type Iban struct {
	ID            string
	BankName      string
	AccountHolder string
	IBANNumber    string
	IsActive      bool
	AddedBy       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileUpdate carrega apenas os campos enviados (nil = não alterar)
type ProfileUpdate struct {
	IBAN           *string
	IBANHolderName *string
	BankName       *string
	Phone          *string
	FirstName      *string
	LastName       *string
}

func (p ProfileUpdate) Empty() bool {
	return p.IBAN == nil && p.IBANHolderName == nil && p.BankName == nil &&
		p.Phone == nil && p.FirstName == nil && p.LastName == nil
}

// ListFilter filtra listagens por dono e status, com paginação por offset
type ListFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}
