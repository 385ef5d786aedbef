package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	"github.com/tavernworks/treasury/internal/storage"
)

// accountView is the wire shape of an account. Monetary fields marshal as
// decimal strings so callers never see float rounding.
type accountView struct {
	ActorID        string          `json:"actor_id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	LastInterestAt time.Time       `json:"last_interest_at,omitzero"`
	LastBonusAt    time.Time       `json:"last_bonus_at,omitzero"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newAccountView(account domain.Account) accountView {
	return accountView{
		ActorID:        account.ActorID,
		Balance:        account.Balance,
		TotalEarned:    account.TotalEarned,
		TotalSpent:     account.TotalSpent,
		LastInterestAt: account.LastInterestAt,
		LastBonusAt:    account.LastBonusAt,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	}
}

type transactionView struct {
	ID          string          `json:"id"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newTransactionView(txn domain.Transaction) transactionView {
	return transactionView{
		ID:          txn.ID,
		From:        txn.FromActorID,
		To:          txn.ToActorID,
		Amount:      txn.Amount,
		Kind:        string(txn.Kind),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}
}

func newTransactionViews(txns []domain.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, newTransactionView(txn))
	}
	return views
}

type loanView struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id"`
	Principal decimal.Decimal `json:"principal"`
	Rate      decimal.Decimal `json:"rate"`
	Remaining decimal.Decimal `json:"remaining"`
	IssuedAt  time.Time       `json:"issued_at"`
	DueAt     time.Time       `json:"due_at"`
	Status    string          `json:"status"`
}

func newLoanView(loan domain.Loan) loanView {
	return loanView{
		ID:        loan.ID,
		ActorID:   loan.ActorID,
		Principal: loan.Principal,
		Rate:      loan.Rate,
		Remaining: loan.Remaining,
		IssuedAt:  loan.IssuedAt,
		DueAt:     loan.DueAt,
		Status:    string(loan.Status),
	}
}

type itemView struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func newItemView(item domain.Item) itemView {
	return itemView{
		Name:        item.Name,
		Price:       item.Price,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func newItemViews(items []domain.Item) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item))
	}
	return views
}

type settlementRunView struct {
	ID              int64           `json:"id"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	AccountsSeen    int             `json:"accounts_seen"`
	AccountsSettled int             `json:"accounts_settled"`
	InterestPaid    decimal.Decimal `json:"interest_paid"`
	Failures        int             `json:"failures"`
}

func newSettlementRunView(run storage.SettlementRun) settlementRunView {
	return settlementRunView{
		ID:              run.ID,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		AccountsSeen:    run.AccountsSeen,
		AccountsSettled: run.AccountsSettled,
		InterestPaid:    run.InterestPaid,
		Failures:        run.Failures,
	}
}
