package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx é a unidade atômica vista pelo engine. Os métodos ...ForUpdate
// travam a linha até o fim da transação.
type Tx interface {
	GetUserForUpdate(ctx context.Context, userID string) (User, error)
	UpdateUserBalance(ctx context.Context, userID string, balance, totalDeposits decimal.Decimal) error

	InsertDeposit(ctx context.Context, d DepositRequest) error
	GetDepositForUpdate(ctx context.Context, id string) (DepositRequest, error)
	UpdateDeposit(ctx context.Context, d DepositRequest) error

	InsertWithdrawal(ctx context.Context, w WithdrawalRequest) error
	// userID vazio ignora o dono (uso administrativo)
	GetWithdrawalForUpdate(ctx context.Context, id, userID string) (WithdrawalRequest, error)
	UpdateWithdrawal(ctx context.Context, w WithdrawalRequest) error

	InsertTransaction(ctx context.Context, t Transaction) error
	FindTransactionByRequest(ctx context.Context, kind RequestKind, requestID string) (Transaction, error)
	UpdateTransaction(ctx context.Context, t Transaction) error
}

// Store abre unidades atômicas e atende consultas somente leitura
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListDeposits(ctx context.Context, f ListFilter) ([]DepositRequest, error)
	CountDeposits(ctx context.Context, f ListFilter) (int, error)
	ListWithdrawals(ctx context.Context, f ListFilter) ([]WithdrawalRequest, error)
	CountWithdrawals(ctx context.Context, f ListFilter) (int, error)

	UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (User, error)

	ActiveIbans(ctx context.Context) ([]Iban, error)
	AllIbans(ctx context.Context) ([]Iban, error)
	InsertIban(ctx context.Context, i Iban) error
	SetIbanActive(ctx context.Context, id string, active bool) (Iban, error)
}
