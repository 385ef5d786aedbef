package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
)

const (
	minLoanDurationDays = 1
	maxLoanDurationDays = 365
)

// RequestLoan issues a loan to a cached actor and disburses the principal
// as a capped credit. The amount owed is fixed at issue time; at most one
// active loan per actor is allowed. Loan insert and disbursement are one
// store transaction.
func (l *Ledger) RequestLoan(ctx context.Context, actorID string, amount decimal.Decimal, durationDays int) (LoanResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return LoanResult{}, domain.ErrEmptyActorID
	}
	if !amount.IsPositive() {
		return LoanResult{}, domain.ErrAmountNotPositive
	}
	if durationDays < minLoanDurationDays || durationDays > maxLoanDurationDays {
		return LoanResult{}, apperrors.New(apperrors.CodeLoanDurationInvalid, "loan duration must be between 1 and 365 days")
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return LoanResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	if amount.GreaterThan(settings.MaxLoanAmount) {
		return LoanResult{}, apperrors.WithMetadata(apperrors.CodeLoanTooLarge, "loan principal exceeds the maximum", map[string]string{
			"Max": settings.MaxLoanAmount.String(),
		})
	}

	_, err = l.store.ActiveLoanByActor(ctx, actorID)
	switch {
	case err == nil:
		return LoanResult{}, domain.ErrLoanOutstanding
	case !errors.Is(err, storage.ErrNotFound):
		return LoanResult{}, storeError("check active loan", err)
	}

	id, err := l.newID()
	if err != nil {
		return LoanResult{}, fmt.Errorf("generate loan id: %w", err)
	}
	now := l.now()
	loan, err := domain.NewLoan(id, actorID, amount, settings.LoanRate, time.Duration(durationDays)*24*time.Hour, now)
	if err != nil {
		return LoanResult{}, err
	}
	credited, err := domain.ApplyCredit(e.acct, amount, settings.MaxBalance, now)
	if err != nil {
		return LoanResult{}, enrichRuleError(err, e.acct.Balance, amount, settings)
	}
	if err := l.store.CreateLoan(ctx, loan, credited); err != nil {
		return LoanResult{}, storeError("create loan", err)
	}
	e.acct = credited
	l.appendHistory(ctx, domain.NewSystemCredit("", actorID, amount, domain.KindLoanDisbursement, "loan disbursement", now))
	return LoanResult{Loan: loan, Balance: credited.Balance}, nil
}

// RepayLoan pays amount toward the actor's active loan. The full amount is
// debited even when it exceeds the remaining debt; reaching zero settles
// the loan. Loan update and debit are one store transaction.
func (l *Ledger) RepayLoan(ctx context.Context, actorID string, amount decimal.Decimal) (RepaymentResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return RepaymentResult{}, domain.ErrEmptyActorID
	}
	if !amount.IsPositive() {
		return RepaymentResult{}, domain.ErrAmountNotPositive
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return RepaymentResult{}, err
	}
	defer e.mu.Unlock()

	loan, err := l.store.ActiveLoanByActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return RepaymentResult{}, apperrors.New(apperrors.CodeLoanNotFound, "actor has no active loan")
		}
		return RepaymentResult{}, storeError("read active loan", err)
	}

	settings := l.Settings()
	now := l.now()
	updatedLoan, err := domain.ApplyRepayment(loan, amount)
	if err != nil {
		return RepaymentResult{}, err
	}
	debited, err := domain.ApplyDebit(e.acct, amount, now)
	if err != nil {
		return RepaymentResult{}, enrichRuleError(err, e.acct.Balance, amount, settings)
	}
	if err := l.store.SettleLoanPayment(ctx, updatedLoan, debited); err != nil {
		return RepaymentResult{}, storeError("settle loan payment", err)
	}
	e.acct = debited

	settled := updatedLoan.Status == domain.LoanStatusPaid
	description := fmt.Sprintf("loan repayment (%s remaining)", updatedLoan.Remaining)
	if settled {
		description = "loan repayment (paid in full)"
	}
	l.appendHistory(ctx, domain.NewSystemDebit("", actorID, amount, domain.KindLoanRepayment, description, now))
	return RepaymentResult{Loan: updatedLoan, Paid: amount, Balance: debited.Balance, Settled: settled}, nil
}
