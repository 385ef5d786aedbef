package economy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
)

// MutationResult reports a single-account mutation. Amount is the value
// applied; for SetBalance it is the signed delta against the previous
// balance.
type MutationResult struct {
	ActorID string
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// TransferResult reports a completed transfer including the tax withheld
// from the sender.
type TransferResult struct {
	FromActorID string
	ToActorID   string
	Amount      decimal.Decimal
	Tax         decimal.Decimal
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// InterestResult reports an accrual attempt. Applied is false when the
// accrual interval has not elapsed or interest is disabled; that outcome is
// an answer, not an error.
type InterestResult struct {
	ActorID  string
	Applied  bool
	Interest decimal.Decimal
	Balance  decimal.Decimal
}

// BonusResult reports a daily bonus claim. When the cooldown is still
// running, Claimed is false and Wait carries the remaining time.
type BonusResult struct {
	ActorID string
	Claimed bool
	Granted decimal.Decimal
	Balance decimal.Decimal
	Wait    time.Duration
}

// WaitHoursMinutes splits the remaining cooldown into whole hours and
// minutes, never negative.
func (r BonusResult) WaitHoursMinutes() (int, int) {
	if r.Wait <= 0 {
		return 0, 0
	}
	hours := int(r.Wait / time.Hour)
	minutes := int((r.Wait % time.Hour) / time.Minute)
	return hours, minutes
}

// LoanResult reports an issued loan and the balance after disbursement.
type LoanResult struct {
	Loan    domain.Loan
	Balance decimal.Decimal
}

// RepaymentResult reports a loan payment. Settled is true when the payment
// cleared the remaining debt.
type RepaymentResult struct {
	Loan    domain.Loan
	Paid    decimal.Decimal
	Balance decimal.Decimal
	Settled bool
}

// StatsResult is a read-only account snapshot with the active loan, if any.
// Cached reports whether the snapshot came from the cache or the store.
type StatsResult struct {
	Account    domain.Account
	ActiveLoan *domain.Loan
	Cached     bool
}
