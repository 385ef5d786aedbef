package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	"github.com/tavernworks/treasury/internal/storage"
)

var storeNow = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/treasury.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedAccount(t *testing.T, store *Store, actorID, balance string) domain.Account {
	t.Helper()
	acct := domain.Account{
		ActorID:        actorID,
		Balance:        money(balance),
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		LastInterestAt: storeNow,
		CreatedAt:      storeNow,
		UpdatedAt:      storeNow,
	}
	if err := store.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("create account %s: %v", actorID, err)
	}
	return acct
}

func TestAccountRoundTrip(t *testing.T) {
	store := openTestStore(t)
	seedAccount(t, store, "actor-1", "1000")

	got, err := store.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(money("1000")) {
		t.Fatalf("balance = %s, want 1000", got.Balance)
	}
	if !got.LastBonusAt.IsZero() {
		t.Fatalf("last_bonus_at = %v, want zero time", got.LastBonusAt)
	}
	if !got.LastInterestAt.Equal(storeNow) {
		t.Fatalf("last_interest_at = %v, want %v", got.LastInterestAt, storeNow)
	}

	updated := got
	updated.Balance = money("1234.56")
	updated.TotalEarned = money("234.56")
	updated.LastBonusAt = storeNow.Add(time.Hour)
	updated.UpdatedAt = storeNow.Add(time.Hour)
	if err := store.UpdateAccount(context.Background(), updated); err != nil {
		t.Fatalf("update account: %v", err)
	}

	got, err = store.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get updated account: %v", err)
	}
	if !got.Balance.Equal(money("1234.56")) {
		t.Fatalf("balance = %s, want 1234.56", got.Balance)
	}
	if !got.LastBonusAt.Equal(storeNow.Add(time.Hour)) {
		t.Fatalf("last_bonus_at = %v, want %v", got.LastBonusAt, storeNow.Add(time.Hour))
	}
}

func TestGetAccountNotFound(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetAccount(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get account err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUpdateAccountMissingRow(t *testing.T) {
	store := openTestStore(t)
	err := store.UpdateAccount(context.Background(), domain.Account{
		ActorID:        "missing",
		Balance:        money("10"),
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		LastInterestAt: storeNow,
		UpdatedAt:      storeNow,
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update account err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUpdateAccountPair(t *testing.T) {
	store := openTestStore(t)
	a := seedAccount(t, store, "actor-a", "898")
	b := seedAccount(t, store, "actor-b", "1100")

	a.Balance = money("800")
	b.Balance = money("1198")
	if err := store.UpdateAccountPair(context.Background(), a, b); err != nil {
		t.Fatalf("update account pair: %v", err)
	}

	gotA, err := store.GetAccount(context.Background(), "actor-a")
	if err != nil {
		t.Fatalf("get actor-a: %v", err)
	}
	gotB, err := store.GetAccount(context.Background(), "actor-b")
	if err != nil {
		t.Fatalf("get actor-b: %v", err)
	}
	if !gotA.Balance.Equal(money("800")) || !gotB.Balance.Equal(money("1198")) {
		t.Fatalf("balances = %s/%s, want 800/1198", gotA.Balance, gotB.Balance)
	}
}

func TestUpdateAccountPairRollsBackOnMissingRow(t *testing.T) {
	store := openTestStore(t)
	a := seedAccount(t, store, "actor-a", "500")

	a.Balance = money("400")
	missing := domain.Account{
		ActorID:        "actor-ghost",
		Balance:        money("100"),
		TotalEarned:    decimal.Zero,
		TotalSpent:     decimal.Zero,
		LastInterestAt: storeNow,
		UpdatedAt:      storeNow,
	}
	if err := store.UpdateAccountPair(context.Background(), a, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("update pair err = %v, want %v", err, storage.ErrNotFound)
	}

	got, err := store.GetAccount(context.Background(), "actor-a")
	if err != nil {
		t.Fatalf("get actor-a: %v", err)
	}
	if !got.Balance.Equal(money("500")) {
		t.Fatalf("balance = %s, want 500 after rollback", got.Balance)
	}
}

func TestTopAccountsOrdersByBalance(t *testing.T) {
	store := openTestStore(t)
	seedAccount(t, store, "actor-low", "50")
	seedAccount(t, store, "actor-high", "700.25")
	seedAccount(t, store, "actor-mid", "700.20")

	top, err := store.TopAccounts(context.Background(), 2)
	if err != nil {
		t.Fatalf("top accounts: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top len = %d, want 2", len(top))
	}
	if top[0].ActorID != "actor-high" || top[1].ActorID != "actor-mid" {
		t.Fatalf("top order = %s,%s, want actor-high,actor-mid", top[0].ActorID, top[1].ActorID)
	}
}

func TestTransactionJournalRoundTrip(t *testing.T) {
	store := openTestStore(t)

	entries := []domain.Transaction{
		domain.NewSystemCredit("tx-1", "actor-1", money("1000"), domain.KindAdd, "seed", storeNow),
		domain.NewTransfer("tx-2", "actor-1", "actor-2", money("100"), "rent", storeNow.Add(time.Minute)),
		domain.NewSystemDebit("tx-3", "actor-2", money("30"), domain.KindRemove, "penalty", storeNow.Add(2*time.Minute)),
	}
	for _, entry := range entries {
		if err := store.AppendTransaction(context.Background(), entry); err != nil {
			t.Fatalf("append %s: %v", entry.ID, err)
		}
	}

	history, err := store.TransactionsByActor(context.Background(), "actor-1", 10)
	if err != nil {
		t.Fatalf("transactions by actor: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].ID != "tx-2" || history[1].ID != "tx-1" {
		t.Fatalf("history order = %s,%s, want tx-2,tx-1", history[0].ID, history[1].ID)
	}
	if !history[0].Amount.Equal(money("100")) {
		t.Fatalf("amount = %s, want 100", history[0].Amount)
	}
	if history[0].Kind != domain.KindTransfer {
		t.Fatalf("kind = %s, want %s", history[0].Kind, domain.KindTransfer)
	}

	limited, err := store.TransactionsByActor(context.Background(), "actor-2", 1)
	if err != nil {
		t.Fatalf("transactions by actor with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "tx-3" {
		t.Fatalf("limited history = %+v, want single tx-3", limited)
	}
}

func TestAppendTransactionRejectsInvalidKind(t *testing.T) {
	store := openTestStore(t)
	entry := domain.Transaction{ID: "tx-1", Amount: money("10"), Kind: domain.Kind("refund"), CreatedAt: storeNow}
	if err := store.AppendTransaction(context.Background(), entry); err == nil {
		t.Fatal("expected invalid kind to be rejected")
	}
}

func TestLoanLifecycle(t *testing.T) {
	store := openTestStore(t)
	acct := seedAccount(t, store, "actor-1", "1000")

	loan, err := domain.NewLoan("loan-1", "actor-1", money("500"), money("0.10"), 7*24*time.Hour, storeNow)
	if err != nil {
		t.Fatalf("new loan: %v", err)
	}
	disbursed := acct
	disbursed.Balance = money("1500")
	if err := store.CreateLoan(context.Background(), loan, disbursed); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	got, err := store.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get account after disbursement: %v", err)
	}
	if !got.Balance.Equal(money("1500")) {
		t.Fatalf("balance = %s, want 1500 after disbursement", got.Balance)
	}

	active, err := store.ActiveLoanByActor(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("active loan: %v", err)
	}
	if !active.Remaining.Equal(money("550")) {
		t.Fatalf("remaining = %s, want 550", active.Remaining)
	}

	settled, err := domain.ApplyRepayment(active, money("550"))
	if err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	payer := got
	payer.Balance = got.Balance.Sub(money("550"))
	if err := store.SettleLoanPayment(context.Background(), settled, payer); err != nil {
		t.Fatalf("settle loan payment: %v", err)
	}

	if _, err := store.ActiveLoanByActor(context.Background(), "actor-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("active loan after payoff err = %v, want %v", err, storage.ErrNotFound)
	}
	got, err = store.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get account after payoff: %v", err)
	}
	if !got.Balance.Equal(money("950")) {
		t.Fatalf("balance = %s, want 950 after payoff", got.Balance)
	}
}

func TestCreateLoanSecondActiveRejected(t *testing.T) {
	store := openTestStore(t)
	acct := seedAccount(t, store, "actor-1", "1000")

	first, err := domain.NewLoan("loan-1", "actor-1", money("100"), money("0.10"), time.Hour, storeNow)
	if err != nil {
		t.Fatalf("new loan: %v", err)
	}
	if err := store.CreateLoan(context.Background(), first, acct); err != nil {
		t.Fatalf("create first loan: %v", err)
	}

	second, err := domain.NewLoan("loan-2", "actor-1", money("200"), money("0.10"), time.Hour, storeNow)
	if err != nil {
		t.Fatalf("new second loan: %v", err)
	}
	if err := store.CreateLoan(context.Background(), second, acct); err == nil {
		t.Fatal("expected second active loan to violate the unique index")
	}
}

func TestItemCatalog(t *testing.T) {
	store := openTestStore(t)

	potion, err := domain.NewItem("Health Potion", money("25.50"), "restores 50 hp", storeNow)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if err := store.PutItem(context.Background(), potion); err != nil {
		t.Fatalf("put item: %v", err)
	}
	sword, err := domain.NewItem("Arming Sword", money("120"), "", storeNow)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if err := store.PutItem(context.Background(), sword); err != nil {
		t.Fatalf("put item: %v", err)
	}

	got, err := store.GetItem(context.Background(), "HEALTH potion")
	if err != nil {
		t.Fatalf("get item case-insensitive: %v", err)
	}
	if got.Name != "Health Potion" || !got.Price.Equal(money("25.50")) {
		t.Fatalf("item = %q %s, want Health Potion 25.50", got.Name, got.Price)
	}

	repriced, err := potion.Reprice(money("30"), storeNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if err := store.PutItem(context.Background(), repriced); err != nil {
		t.Fatalf("upsert item: %v", err)
	}
	got, err = store.GetItem(context.Background(), "health potion")
	if err != nil {
		t.Fatalf("get repriced item: %v", err)
	}
	if !got.Price.Equal(money("30")) {
		t.Fatalf("price = %s, want 30 after upsert", got.Price)
	}
	if !got.CreatedAt.Equal(storeNow) {
		t.Fatalf("created_at = %v, want original %v", got.CreatedAt, storeNow)
	}

	items, err := store.ListItems(context.Background())
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Arming Sword" || items[1].Name != "Health Potion" {
		t.Fatalf("items = %+v, want name-sorted pair", items)
	}

	if err := store.DeleteItem(context.Background(), "arming sword"); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if err := store.DeleteItem(context.Background(), "arming sword"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing item err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSettlementRunsRoundTrip(t *testing.T) {
	store := openTestStore(t)

	first := storage.SettlementRun{
		StartedAt:       storeNow,
		FinishedAt:      storeNow.Add(time.Second),
		AccountsSeen:    3,
		AccountsSettled: 2,
		InterestPaid:    money("12.34"),
		Failures:        1,
	}
	second := storage.SettlementRun{
		StartedAt:       storeNow.Add(time.Hour),
		FinishedAt:      storeNow.Add(time.Hour + time.Second),
		AccountsSeen:    4,
		AccountsSettled: 4,
		InterestPaid:    money("20"),
		Failures:        0,
	}
	if err := store.AppendSettlementRun(context.Background(), first); err != nil {
		t.Fatalf("append first run: %v", err)
	}
	if err := store.AppendSettlementRun(context.Background(), second); err != nil {
		t.Fatalf("append second run: %v", err)
	}

	runs, err := store.SettlementRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("settlement runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs len = %d, want 2", len(runs))
	}
	if runs[0].AccountsSeen != 4 || runs[1].AccountsSeen != 3 {
		t.Fatalf("runs order = %d,%d accounts seen, want 4,3", runs[0].AccountsSeen, runs[1].AccountsSeen)
	}
	if !runs[1].InterestPaid.Equal(money("12.34")) {
		t.Fatalf("interest paid = %s, want 12.34", runs[1].InterestPaid)
	}
	if runs[1].ID == 0 {
		t.Fatal("expected store-assigned run id")
	}
}

func TestReopenAppliesMigrationsOnce(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/treasury.db"

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	seedAccount(t, store, "actor-1", "10")
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetAccount(context.Background(), "actor-1")
	if err != nil {
		t.Fatalf("get account after reopen: %v", err)
	}
	if !got.Balance.Equal(money("10")) {
		t.Fatalf("balance = %s, want 10 after reopen", got.Balance)
	}

	var count int64
	if err := reopened.sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("migration rows = %d, want 1", count)
	}
}
