package economy

import (
	"context"
	"strings"
	"time"

	"github.com/tavernworks/treasury/internal/economy/domain"
)

// AccrueInterest applies one interest grant when the accrual interval has
// elapsed since the actor's last accrual. An interval that has not elapsed,
// or interest being disabled, is an answer (Applied=false), not an error.
// now is the settlement pass timestamp so one pass stamps every account
// consistently.
func (l *Ledger) AccrueInterest(ctx context.Context, actorID string, now time.Time) (InterestResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return InterestResult{}, domain.ErrEmptyActorID
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return InterestResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	if !settings.InterestEnabled {
		return InterestResult{ActorID: actorID, Balance: e.acct.Balance}, nil
	}

	updated, interest, applied := domain.ApplyInterest(e.acct, settings.InterestRate, settings.InterestInterval, settings.MaxBalance, now)
	if !applied {
		return InterestResult{ActorID: actorID, Balance: e.acct.Balance}, nil
	}
	if err := l.store.UpdateAccount(ctx, updated); err != nil {
		return InterestResult{}, storeError("accrue interest", err)
	}
	e.acct = updated
	if interest.IsPositive() {
		l.appendHistory(ctx, domain.NewSystemCredit("", actorID, interest, domain.KindInterest, "interest", now))
	}
	return InterestResult{ActorID: actorID, Applied: true, Interest: interest, Balance: updated.Balance}, nil
}

// ClaimDailyBonus grants the daily bonus when the 24h cooldown has elapsed.
// A claim during the cooldown reports the remaining wait with Claimed=false
// and no error.
func (l *Ledger) ClaimDailyBonus(ctx context.Context, actorID string) (BonusResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return BonusResult{}, domain.ErrEmptyActorID
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return BonusResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	now := l.now()
	updated, granted, wait, claimed := domain.ApplyDailyBonus(e.acct, settings.DailyBonusAmount, settings.MaxBalance, now)
	if !claimed {
		return BonusResult{ActorID: actorID, Balance: e.acct.Balance, Wait: wait}, nil
	}
	if err := l.store.UpdateAccount(ctx, updated); err != nil {
		return BonusResult{}, storeError("claim daily bonus", err)
	}
	e.acct = updated
	if granted.IsPositive() {
		l.appendHistory(ctx, domain.NewSystemCredit("", actorID, granted, domain.KindDailyBonus, "daily bonus", now))
	}
	return BonusResult{ActorID: actorID, Claimed: true, Granted: granted, Balance: updated.Balance}, nil
}
