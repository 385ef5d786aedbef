package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// AccountStore persists per-actor account rows.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct domain.Account) error
	GetAccount(ctx context.Context, actorID string) (domain.Account, error)
	UpdateAccount(ctx context.Context, acct domain.Account) error
	// UpdateAccountPair writes both rows in one transaction: both or neither.
	UpdateAccountPair(ctx context.Context, a, b domain.Account) error
	// TopAccounts returns up to limit accounts ordered by descending balance.
	TopAccounts(ctx context.Context, limit int) ([]domain.Account, error)
}

// TransactionStore appends and reads the journal.
type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx domain.Transaction) error
	// TransactionsByActor returns up to limit entries involving the actor,
	// most recent first.
	TransactionsByActor(ctx context.Context, actorID string, limit int) ([]domain.Transaction, error)
}

// LoanStore persists loans. Disbursement and repayment write the loan and
// the affected account row in one transaction.
type LoanStore interface {
	CreateLoan(ctx context.Context, loan domain.Loan, disbursed domain.Account) error
	// ActiveLoanByActor returns the actor's active loan or ErrNotFound.
	ActiveLoanByActor(ctx context.Context, actorID string) (domain.Loan, error)
	SettleLoanPayment(ctx context.Context, loan domain.Loan, payer domain.Account) error
}

// CatalogStore persists shop items keyed by lower-cased name.
type CatalogStore interface {
	PutItem(ctx context.Context, item domain.Item) error
	GetItem(ctx context.Context, name string) (domain.Item, error)
	DeleteItem(ctx context.Context, name string) error
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// SettlementRun summarizes one interest settlement pass.
type SettlementRun struct {
	ID              int64
	StartedAt       time.Time
	FinishedAt      time.Time
	AccountsSeen    int
	AccountsSettled int
	InterestPaid    decimal.Decimal
	Failures        int
}

// SettlementRunStore records scheduler pass summaries.
type SettlementRunStore interface {
	AppendSettlementRun(ctx context.Context, run SettlementRun) error
	// SettlementRuns returns up to limit runs, most recent first.
	SettlementRuns(ctx context.Context, limit int) ([]SettlementRun, error)
}

// Store is the full persistence surface consumed by the service.
type Store interface {
	AccountStore
	TransactionStore
	LoanStore
	CatalogStore
	SettlementRunStore
}
