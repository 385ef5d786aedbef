package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a journal entry.
type Kind string

const (
	KindInterest         Kind = "interest"
	KindAdminSet         Kind = "admin_set"
	KindAdd              Kind = "add"
	KindRemove           Kind = "remove"
	KindTransfer         Kind = "transfer"
	KindDailyBonus       Kind = "daily_bonus"
	KindLoanDisbursement Kind = "loan_disbursement"
	KindLoanRepayment    Kind = "loan_repayment"
)

// Valid reports whether the kind is one of the known journal kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInterest, KindAdminSet, KindAdd, KindRemove, KindTransfer,
		KindDailyBonus, KindLoanDisbursement, KindLoanRepayment:
		return true
	}
	return false
}

// Transaction is one append-only journal entry. FromActorID is empty when the
// system is the source (interest, bonuses, credits, disbursements) and
// ToActorID is empty when value leaves the economy (debits, repayments).
// Amount is positive for every kind except admin_set, where it carries the
// signed delta against the previous balance.
type Transaction struct {
	ID          string
	FromActorID string
	ToActorID   string
	Amount      decimal.Decimal
	Kind        Kind
	Description string
	CreatedAt   time.Time
}

// NewSystemCredit journals value entering the economy for an actor.
func NewSystemCredit(id, actorID string, amount decimal.Decimal, kind Kind, description string, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		ToActorID:   actorID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}

// NewSystemDebit journals value leaving the economy from an actor.
func NewSystemDebit(id, actorID string, amount decimal.Decimal, kind Kind, description string, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		FromActorID: actorID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}

// NewTransfer journals an actor-to-actor transfer.
func NewTransfer(id, fromActorID, toActorID string, amount decimal.Decimal, description string, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		FromActorID: fromActorID,
		ToActorID:   toActorID,
		Amount:      amount,
		Kind:        KindTransfer,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}

// NewAdminSet journals a balance override with its signed delta.
func NewAdminSet(id, actorID string, delta decimal.Decimal, description string, now time.Time) Transaction {
	return Transaction{
		ID:          id,
		ToActorID:   actorID,
		Amount:      delta,
		Kind:        KindAdminSet,
		Description: description,
		CreatedAt:   now.UTC(),
	}
}

// Involves reports whether the actor is either side of the entry.
func (t Transaction) Involves(actorID string) bool {
	return actorID != "" && (t.FromActorID == actorID || t.ToActorID == actorID)
}
