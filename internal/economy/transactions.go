package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
)

// SetBalance overrides the actor's balance and journals the signed delta.
// The actor must be cached.
func (l *Ledger) SetBalance(ctx context.Context, actorID string, amount decimal.Decimal) (MutationResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return MutationResult{}, domain.ErrEmptyActorID
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return MutationResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	now := l.now()
	updated, delta, err := domain.ApplySetBalance(e.acct, amount, settings.MaxBalance, now)
	if err != nil {
		return MutationResult{}, enrichRuleError(err, e.acct.Balance, amount, settings)
	}
	if err := l.store.UpdateAccount(ctx, updated); err != nil {
		return MutationResult{}, storeError("set balance", err)
	}
	e.acct = updated
	l.appendHistory(ctx, domain.NewAdminSet("", actorID, delta, "admin balance override", now))
	return MutationResult{ActorID: actorID, Amount: delta, Balance: updated.Balance}, nil
}

// Credit adds amount to the actor's balance, capped at the maximum.
func (l *Ledger) Credit(ctx context.Context, actorID string, amount decimal.Decimal, reason string) (MutationResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return MutationResult{}, domain.ErrEmptyActorID
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return MutationResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	now := l.now()
	updated, err := domain.ApplyCredit(e.acct, amount, settings.MaxBalance, now)
	if err != nil {
		return MutationResult{}, enrichRuleError(err, e.acct.Balance, amount, settings)
	}
	if err := l.store.UpdateAccount(ctx, updated); err != nil {
		return MutationResult{}, storeError("credit", err)
	}
	e.acct = updated
	l.appendHistory(ctx, domain.NewSystemCredit("", actorID, amount, domain.KindAdd, historyReason(reason, "credit"), now))
	return MutationResult{ActorID: actorID, Amount: amount, Balance: updated.Balance}, nil
}

// Debit removes amount from the actor's balance.
func (l *Ledger) Debit(ctx context.Context, actorID string, amount decimal.Decimal, reason string) (MutationResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return MutationResult{}, domain.ErrEmptyActorID
	}

	e, err := l.lockedEntry(actorID)
	if err != nil {
		return MutationResult{}, err
	}
	defer e.mu.Unlock()

	settings := l.Settings()
	now := l.now()
	updated, err := domain.ApplyDebit(e.acct, amount, now)
	if err != nil {
		return MutationResult{}, enrichRuleError(err, e.acct.Balance, amount, settings)
	}
	if err := l.store.UpdateAccount(ctx, updated); err != nil {
		return MutationResult{}, storeError("debit", err)
	}
	e.acct = updated
	l.appendHistory(ctx, domain.NewSystemDebit("", actorID, amount, domain.KindRemove, historyReason(reason, "debit"), now))
	return MutationResult{ActorID: actorID, Amount: amount, Balance: updated.Balance}, nil
}

// Transfer moves amount between two cached actors, charging the sender the
// configured tax on top. Both store rows are written in one transaction and
// both cache entries commit together; a failure changes neither account.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (TransferResult, error) {
	fromID = strings.TrimSpace(fromID)
	toID = strings.TrimSpace(toID)
	if fromID == "" || toID == "" {
		return TransferResult{}, domain.ErrEmptyActorID
	}
	if fromID == toID {
		return TransferResult{}, domain.ErrSelfTransfer
	}
	if !amount.IsPositive() {
		return TransferResult{}, domain.ErrAmountNotPositive
	}

	from, to, err := l.lockedPair(fromID, toID)
	if err != nil {
		return TransferResult{}, err
	}
	defer from.mu.Unlock()
	defer to.mu.Unlock()

	settings := l.Settings()
	now := l.now()
	debited, credited, tax, err := domain.ApplyTransfer(from.acct, to.acct, amount, settings.TaxRate, settings.MaxBalance, now)
	if err != nil {
		required := amount.Add(domain.RoundMoney(amount.Mul(settings.TaxRate)))
		return TransferResult{}, enrichRuleError(err, from.acct.Balance, required, settings)
	}
	if err := l.store.UpdateAccountPair(ctx, debited, credited); err != nil {
		return TransferResult{}, storeError("transfer", err)
	}
	from.acct = debited
	to.acct = credited
	l.appendHistory(ctx, domain.NewTransfer("", fromID, toID, amount, fmt.Sprintf("transfer (tax %s)", tax), now))
	return TransferResult{
		FromActorID: fromID,
		ToActorID:   toID,
		Amount:      amount,
		Tax:         tax,
		FromBalance: debited.Balance,
		ToBalance:   credited.Balance,
	}, nil
}

// historyReason trims a caller-supplied description, falling back to the
// operation name.
func historyReason(reason, fallback string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fallback
	}
	return reason
}

// enrichRuleError attaches the concrete amounts the i18n templates render
// for rule violations the domain reports as bare sentinels.
func enrichRuleError(err error, balance, amount decimal.Decimal, settings Settings) error {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperrors.WrapWithMetadata(apperrors.CodeInsufficientFunds, "insufficient funds", map[string]string{
			"Required": amount.String(),
			"Balance":  balance.String(),
		}, err)
	case errors.Is(err, domain.ErrBalanceExceedsCap):
		return apperrors.WrapWithMetadata(apperrors.CodeBalanceExceedsCap, "balance would exceed the maximum", map[string]string{
			"Max": settings.MaxBalance.String(),
		}, err)
	case errors.Is(err, domain.ErrBalanceOutOfRange):
		return apperrors.WrapWithMetadata(apperrors.CodeBalanceOutOfRange, "balance is outside the allowed range", map[string]string{
			"Max": settings.MaxBalance.String(),
		}, err)
	}
	return err
}
