package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tavernworks/treasury/internal/errors"
)

// LoanStatus tracks a loan through its lifecycle.
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusPaid   LoanStatus = "paid"
)

var (
	// ErrLoanAlreadyPaid indicates a repayment against a settled loan.
	ErrLoanAlreadyPaid = apperrors.New(apperrors.CodeLoanAlreadyPaid, "loan is already paid off")
	// ErrLoanOutstanding indicates an actor already carries an active loan.
	ErrLoanOutstanding = apperrors.New(apperrors.CodeLoanOutstanding, "actor already has an active loan")
)

// Loan is borrowed principal plus a flat interest charge fixed at issue time.
type Loan struct {
	ID        string
	ActorID   string
	Principal decimal.Decimal
	Rate      decimal.Decimal
	Remaining decimal.Decimal
	IssuedAt  time.Time
	DueAt     time.Time
	Status    LoanStatus
}

// NewLoan issues a loan. The amount owed is principal plus principal*rate
// rounded to the monetary scale, fixed once at issue time.
func NewLoan(id, actorID string, principal, rate decimal.Decimal, term time.Duration, now time.Time) (Loan, error) {
	if actorID == "" {
		return Loan{}, ErrEmptyActorID
	}
	if !principal.IsPositive() {
		return Loan{}, ErrAmountNotPositive
	}
	issuedAt := now.UTC()
	owed := principal.Add(RoundMoney(principal.Mul(rate)))
	return Loan{
		ID:        id,
		ActorID:   actorID,
		Principal: principal,
		Rate:      rate,
		Remaining: owed,
		IssuedAt:  issuedAt,
		DueAt:     issuedAt.Add(term),
		Status:    LoanStatusActive,
	}, nil
}

// ApplyRepayment pays amount toward the loan. The full amount is charged
// even past the remaining debt; Remaining clamps at zero and reaching it
// flips the loan to paid.
func ApplyRepayment(loan Loan, amount decimal.Decimal) (Loan, error) {
	if loan.Status != LoanStatusActive {
		return Loan{}, ErrLoanAlreadyPaid
	}
	if !amount.IsPositive() {
		return Loan{}, ErrAmountNotPositive
	}
	updated := loan
	updated.Remaining = loan.Remaining.Sub(amount)
	if !updated.Remaining.IsPositive() {
		updated.Remaining = decimal.Zero
		updated.Status = LoanStatusPaid
	}
	return updated, nil
}

// Overdue reports whether an active loan is past its due date.
func (l Loan) Overdue(now time.Time) bool {
	return l.Status == LoanStatusActive && now.After(l.DueAt)
}
