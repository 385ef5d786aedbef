package economy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
	"github.com/tavernworks/treasury/internal/storage/sqlite"
)

var engineNow = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// faultStore wraps a real store with switchable failures and a create
// counter.
type faultStore struct {
	storage.Store

	mu         sync.Mutex
	creates    int
	failPair   error
	failUpdate map[string]error
}

func (f *faultStore) CreateAccount(ctx context.Context, acct domain.Account) error {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	return f.Store.CreateAccount(ctx, acct)
}

func (f *faultStore) UpdateAccount(ctx context.Context, acct domain.Account) error {
	f.mu.Lock()
	err := f.failUpdate[acct.ActorID]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.UpdateAccount(ctx, acct)
}

func (f *faultStore) UpdateAccountPair(ctx context.Context, a, b domain.Account) error {
	f.mu.Lock()
	err := f.failPair
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.UpdateAccountPair(ctx, a, b)
}

func (f *faultStore) setUpdateFailure(actorID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate == nil {
		f.failUpdate = make(map[string]error)
	}
	f.failUpdate[actorID] = err
}

func (f *faultStore) setPairFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPair = err
}

func (f *faultStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

func newTestLedger(t *testing.T, settings Settings) (*Ledger, *faultStore) {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/treasury.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	fault := &faultStore{Store: store}
	ledger, err := NewLedger(fault, settings)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	ledger.now = func() time.Time { return engineNow }
	return ledger, fault
}

// stepClock advances by step on every read so journal rows get distinct
// timestamps. Not safe for concurrent use.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestLoadCreatesAccountWithStartingBalance(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	acct, err := ledger.Load(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !acct.Balance.Equal(money("1000")) {
		t.Fatalf("balance = %s, want 1000", acct.Balance)
	}
	if fault.createCount() != 1 {
		t.Fatalf("creates = %d, want 1", fault.createCount())
	}

	stored, err := fault.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get stored account: %v", err)
	}
	if !stored.Balance.Equal(money("1000")) {
		t.Fatalf("stored balance = %s, want 1000", stored.Balance)
	}
}

func TestLoadReturnsExistingStoreAccount(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	acct := domain.Account{
		ActorID:        "actor-1",
		Balance:        money("42.50"),
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		LastInterestAt: engineNow,
		CreatedAt:      engineNow,
		UpdatedAt:      engineNow,
	}
	if err := fault.Store.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	loaded, err := ledger.Load(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Balance.Equal(money("42.50")) {
		t.Fatalf("balance = %s, want 42.50", loaded.Balance)
	}
	if fault.createCount() != 0 {
		t.Fatalf("creates = %d, want 0", fault.createCount())
	}
}

func TestLoadSingleFlight(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	const loaders = 16
	var wg sync.WaitGroup
	errs := make([]error, loaders)
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.Load(context.Background(), "actor-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("loader %d: %v", i, err)
		}
	}
	if fault.createCount() != 1 {
		t.Fatalf("creates = %d, want exactly 1", fault.createCount())
	}
}

func TestEvictFlushesAndRemoves(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	if _, err := ledger.Load(context.Background(), "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.Credit(context.Background(), "actor-1", money("250"), "reward"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := ledger.Evict(context.Background(), "actor-1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if _, ok := ledger.Peek("actor-1"); ok {
		t.Fatal("expected actor to be gone from cache")
	}

	stored, err := fault.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get stored account: %v", err)
	}
	if !stored.Balance.Equal(money("1250")) {
		t.Fatalf("stored balance = %s, want 1250", stored.Balance)
	}

	// evicting an absent actor is a no-op
	if err := ledger.Evict(context.Background(), "actor-1"); err != nil {
		t.Fatalf("second evict: %v", err)
	}
}

func TestEvictRetainsEntryOnFlushFailure(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	if _, err := ledger.Load(context.Background(), "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	fault.setUpdateFailure("actor-1", errors.New("disk gone"))

	err := ledger.Evict(context.Background(), "actor-1")
	if !apperrors.IsCode(err, apperrors.CodeStoreUnavailable) {
		t.Fatalf("evict err = %v, want store unavailable", err)
	}
	if _, ok := ledger.Peek("actor-1"); !ok {
		t.Fatal("expected actor to stay cached after failed flush")
	}
}

func TestLoadAfterEvictRoundTrips(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())

	if _, err := ledger.Load(context.Background(), "actor-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := ledger.ClaimDailyBonus(context.Background(), "actor-1"); err != nil {
		t.Fatalf("claim bonus: %v", err)
	}
	before, ok := ledger.Peek("actor-1")
	if !ok {
		t.Fatal("expected cached account")
	}

	if err := ledger.Evict(context.Background(), "actor-1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	after, err := ledger.Load(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if !after.Balance.Equal(before.Balance) ||
		!after.TotalEarned.Equal(before.TotalEarned) ||
		!after.TotalSpent.Equal(before.TotalSpent) ||
		!after.LastBonusAt.Equal(before.LastBonusAt) ||
		!after.LastInterestAt.Equal(before.LastInterestAt) ||
		!after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("reloaded account differs: %+v vs %+v", after, before)
	}
}

func TestPeekDoesNotLoad(t *testing.T) {
	ledger, fault := newTestLedger(t, DefaultSettings())

	if _, ok := ledger.Peek("actor-1"); ok {
		t.Fatal("expected miss for unknown actor")
	}
	if fault.createCount() != 0 {
		t.Fatalf("creates = %d, want 0", fault.createCount())
	}
}

func TestCachedActorsSorted(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())

	for _, actorID := range []string{"charlie", "alpha", "bravo"} {
		if _, err := ledger.Load(context.Background(), actorID); err != nil {
			t.Fatalf("load %s: %v", actorID, err)
		}
	}

	actors := ledger.CachedActors()
	want := []string{"alpha", "bravo", "charlie"}
	if len(actors) != len(want) {
		t.Fatalf("actors = %v, want %v", actors, want)
	}
	for i := range want {
		if actors[i] != want[i] {
			t.Fatalf("actors = %v, want %v", actors, want)
		}
	}
}

func TestApplySettingsRejectsInvalid(t *testing.T) {
	ledger, _ := newTestLedger(t, DefaultSettings())

	bad := DefaultSettings()
	bad.TaxRate = money("1.5")
	if err := ledger.ApplySettings(bad); !apperrors.IsCode(err, apperrors.CodeRateOutOfRange) {
		t.Fatalf("apply settings err = %v, want rate out of range", err)
	}
	if !ledger.Settings().TaxRate.Equal(DefaultSettings().TaxRate) {
		t.Fatal("expected snapshot to stay unchanged after rejection")
	}

	good := DefaultSettings()
	good.TaxRate = money("0.05")
	if err := ledger.ApplySettings(good); err != nil {
		t.Fatalf("apply settings: %v", err)
	}
	if !ledger.Settings().TaxRate.Equal(money("0.05")) {
		t.Fatal("expected snapshot swap")
	}
}
