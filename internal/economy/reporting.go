package economy

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
)

const (
	defaultReportLimit = 10
	maxReportLimit     = 100
)

// Stats returns a read-only snapshot of the actor's account, preferring
// the cached copy and falling back to the store without loading. The
// active loan is attached when one exists.
func (l *Ledger) Stats(ctx context.Context, actorID string) (StatsResult, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return StatsResult{}, domain.ErrEmptyActorID
	}

	acct, cached := l.Peek(actorID)
	if !cached {
		var err error
		acct, err = l.store.GetAccount(ctx, actorID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return StatsResult{}, apperrors.WithMetadata(apperrors.CodeNotFound, "account "+actorID+" not found", map[string]string{
					"ActorID": actorID,
				})
			}
			return StatsResult{}, storeError("read account", err)
		}
	}

	result := StatsResult{Account: acct, Cached: cached}
	loan, err := l.store.ActiveLoanByActor(ctx, actorID)
	switch {
	case err == nil:
		result.ActiveLoan = &loan
	case !errors.Is(err, storage.ErrNotFound):
		return StatsResult{}, storeError("read active loan", err)
	}
	return result, nil
}

// History returns the actor's journal entries, most recent first. Limits
// outside [1, 100] clamp to the defaults.
func (l *Ledger) History(ctx context.Context, actorID string, limit int) ([]domain.Transaction, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, domain.ErrEmptyActorID
	}

	entries, err := l.store.TransactionsByActor(ctx, actorID, clampLimit(limit))
	if err != nil {
		return nil, storeError("read history", err)
	}
	return entries, nil
}

// TopAccounts returns up to limit accounts by descending balance. Cached
// copies overlay their store rows, since a cached account is fresher than
// its last flush.
func (l *Ledger) TopAccounts(ctx context.Context, limit int) ([]domain.Account, error) {
	accounts, err := l.store.TopAccounts(ctx, clampLimit(limit))
	if err != nil {
		return nil, storeError("read top accounts", err)
	}
	for i, acct := range accounts {
		if cached, ok := l.Peek(acct.ActorID); ok {
			accounts[i] = cached
		}
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Balance.GreaterThan(accounts[j].Balance)
	})
	return accounts, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultReportLimit
	}
	if limit > maxReportLimit {
		return maxReportLimit
	}
	return limit
}
