package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/tavernworks/treasury/internal/errors"
)

// MoneyScale is the number of decimal places carried by monetary amounts.
// Derived amounts (interest, tax, loan charges) are rounded to this scale so
// repeated accrual stays exact and reproducible.
const MoneyScale = 2

// BonusCooldown is the minimum time between two daily bonus claims.
const BonusCooldown = 24 * time.Hour

var (
	// ErrEmptyActorID indicates a missing actor identifier.
	ErrEmptyActorID = apperrors.New(apperrors.CodeActorIDEmpty, "actor id is required")
	// ErrAmountNotPositive indicates a non-positive mutation amount.
	ErrAmountNotPositive = apperrors.New(apperrors.CodeAmountNotPositive, "amount must be greater than zero")
	// ErrBalanceOutOfRange indicates a balance outside [0, MaxBalance].
	ErrBalanceOutOfRange = apperrors.New(apperrors.CodeBalanceOutOfRange, "balance is outside the allowed range")
	// ErrBalanceExceedsCap indicates a credit that would push the balance past the cap.
	ErrBalanceExceedsCap = apperrors.New(apperrors.CodeBalanceExceedsCap, "balance would exceed the maximum")
	// ErrInsufficientFunds indicates a debit larger than the current balance.
	ErrInsufficientFunds = apperrors.New(apperrors.CodeInsufficientFunds, "insufficient funds")
	// ErrSelfTransfer indicates a transfer whose source and destination match.
	ErrSelfTransfer = apperrors.New(apperrors.CodeSelfTransfer, "cannot transfer to the same actor")
)

// Account represents one actor's economic state.
type Account struct {
	ActorID        string
	Balance        decimal.Decimal
	TotalEarned    decimal.Decimal
	TotalSpent     decimal.Decimal
	LastInterestAt time.Time
	LastBonusAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates an account seeded with the starting balance.
// LastInterestAt starts at creation time so a freshly created account does not
// immediately accrue interest for time it did not exist.
func NewAccount(actorID string, startingBalance decimal.Decimal, now time.Time) (Account, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Account{}, ErrEmptyActorID
	}
	if startingBalance.IsNegative() {
		return Account{}, ErrBalanceOutOfRange
	}
	createdAt := now.UTC()
	return Account{
		ActorID:        actorID,
		Balance:        startingBalance,
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		LastInterestAt: createdAt,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// RoundMoney normalizes a derived amount to the monetary scale.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyScale)
}

// ApplyCredit returns the account with amount added to the balance.
// Amount must be positive and the result must not exceed maxBalance.
func ApplyCredit(acct Account, amount, maxBalance decimal.Decimal, now time.Time) (Account, error) {
	if !amount.IsPositive() {
		return Account{}, ErrAmountNotPositive
	}
	after := acct.Balance.Add(amount)
	if after.GreaterThan(maxBalance) {
		return Account{}, ErrBalanceExceedsCap
	}
	updated := acct
	updated.Balance = after
	updated.TotalEarned = acct.TotalEarned.Add(amount)
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplyDebit returns the account with amount removed from the balance.
// Amount must be positive and cannot exceed the current balance.
func ApplyDebit(acct Account, amount decimal.Decimal, now time.Time) (Account, error) {
	if !amount.IsPositive() {
		return Account{}, ErrAmountNotPositive
	}
	if acct.Balance.LessThan(amount) {
		return Account{}, ErrInsufficientFunds
	}
	updated := acct
	updated.Balance = acct.Balance.Sub(amount)
	updated.TotalSpent = acct.TotalSpent.Add(amount)
	updated.UpdatedAt = now.UTC()
	return updated, nil
}

// ApplySetBalance overrides the balance directly, returning the updated
// account and the signed delta against the previous balance. The lifetime
// accumulators are left untouched; the delta is what gets journaled.
func ApplySetBalance(acct Account, amount, maxBalance decimal.Decimal, now time.Time) (Account, decimal.Decimal, error) {
	if amount.IsNegative() || amount.GreaterThan(maxBalance) {
		return Account{}, decimal.Zero, ErrBalanceOutOfRange
	}
	delta := amount.Sub(acct.Balance)
	updated := acct
	updated.Balance = amount
	updated.UpdatedAt = now.UTC()
	return updated, delta, nil
}

// ApplyTransfer moves amount from one account to another, charging the sender
// amount plus tax. Both updated accounts and the tax charged are returned; on
// any violation neither account changes.
func ApplyTransfer(from, to Account, amount, taxRate, maxBalance decimal.Decimal, now time.Time) (Account, Account, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return Account{}, Account{}, decimal.Zero, ErrAmountNotPositive
	}
	if from.ActorID == to.ActorID {
		return Account{}, Account{}, decimal.Zero, ErrSelfTransfer
	}
	tax := RoundMoney(amount.Mul(taxRate))
	debited, err := ApplyDebit(from, amount.Add(tax), now)
	if err != nil {
		return Account{}, Account{}, decimal.Zero, err
	}
	credited, err := ApplyCredit(to, amount, maxBalance, now)
	if err != nil {
		return Account{}, Account{}, decimal.Zero, err
	}
	return debited, credited, tax, nil
}

// ApplyInterest accrues interest when the accrual interval has elapsed.
// The granted amount is balance*rate rounded to the monetary scale and
// clamped so the balance never exceeds maxBalance. The returned bool reports
// whether the interval had elapsed; a clamped-to-zero grant still advances
// LastInterestAt so the next interval starts from this pass.
func ApplyInterest(acct Account, rate decimal.Decimal, interval time.Duration, maxBalance decimal.Decimal, now time.Time) (Account, decimal.Decimal, bool) {
	if interval <= 0 || now.Sub(acct.LastInterestAt) < interval {
		return acct, decimal.Zero, false
	}
	interest := RoundMoney(acct.Balance.Mul(rate))
	if headroom := maxBalance.Sub(acct.Balance); interest.GreaterThan(headroom) {
		interest = headroom
	}
	if interest.IsNegative() {
		interest = decimal.Zero
	}
	updated := acct
	updated.Balance = acct.Balance.Add(interest)
	updated.TotalEarned = acct.TotalEarned.Add(interest)
	updated.LastInterestAt = now.UTC()
	updated.UpdatedAt = now.UTC()
	return updated, interest, true
}

// ApplyDailyBonus grants the daily bonus when the cooldown has elapsed.
// When the cooldown is still running the account is returned unchanged along
// with the remaining wait. Like interest, the grant is clamped to the balance
// cap rather than rejected, since the claim itself is what starts the next
// cooldown window.
func ApplyDailyBonus(acct Account, bonus, maxBalance decimal.Decimal, now time.Time) (Account, decimal.Decimal, time.Duration, bool) {
	if !acct.LastBonusAt.IsZero() {
		if elapsed := now.Sub(acct.LastBonusAt); elapsed < BonusCooldown {
			return acct, decimal.Zero, BonusCooldown - elapsed, false
		}
	}
	granted := bonus
	if headroom := maxBalance.Sub(acct.Balance); granted.GreaterThan(headroom) {
		granted = headroom
	}
	if granted.IsNegative() {
		granted = decimal.Zero
	}
	updated := acct
	updated.Balance = acct.Balance.Add(granted)
	updated.TotalEarned = acct.TotalEarned.Add(granted)
	updated.LastBonusAt = now.UTC()
	updated.UpdatedAt = now.UTC()
	return updated, granted, 0, true
}
