// Package sqlite provides a SQLite-backed treasury storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tavernworks/treasury/internal/economy/domain"
	"github.com/tavernworks/treasury/internal/platform/storage/sqlitemigrate"
	"github.com/tavernworks/treasury/internal/storage"
	"github.com/tavernworks/treasury/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists treasury state in SQLite. Monetary columns hold exact
// decimal strings; timestamps are UTC milliseconds.
type Store struct {
	sqlDB *sql.DB
}

type scanner func(dest ...any) error

type execContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Zero times round-trip as 0 so "never happened" survives the store.
func toMillisOrZero(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return toMillis(value)
}

func fromMillisOrZero(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return fromMillis(value)
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return parsed, nil
}

// Open opens a SQLite treasury store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, acct domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	actorID := strings.TrimSpace(acct.ActorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO accounts (actor_id, balance, total_earned, total_spent,
		   last_interest_at, last_bonus_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		actorID,
		acct.Balance.String(),
		acct.TotalEarned.String(),
		acct.TotalSpent.String(),
		toMillis(acct.LastInterestAt),
		toMillisOrZero(acct.LastBonusAt),
		toMillis(acct.CreatedAt),
		toMillis(acct.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount returns one account row by actor ID.
func (s *Store) GetAccount(ctx context.Context, actorID string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Account{}, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.Account{}, fmt.Errorf("actor id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT actor_id, balance, total_earned, total_spent,
		   last_interest_at, last_bonus_at, created_at, updated_at
		 FROM accounts
		 WHERE actor_id = ?`,
		actorID,
	)
	acct, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, storage.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

// UpdateAccount writes one account row; the row must already exist.
func (s *Store) UpdateAccount(ctx context.Context, acct domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return updateAccountRow(ctx, s.sqlDB, acct)
}

// UpdateAccountPair writes both account rows in one transaction.
func (s *Store) UpdateAccountPair(ctx context.Context, a, b domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := updateAccountRow(ctx, tx, a); err != nil {
		return err
	}
	if err := updateAccountRow(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account pair: %w", err)
	}
	return nil
}

// TopAccounts returns up to limit accounts ordered by descending balance.
func (s *Store) TopAccounts(ctx context.Context, limit int) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	// Balance is exact decimal text; the REAL cast is for ordering only.
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT actor_id, balance, total_earned, total_spent,
		   last_interest_at, last_bonus_at, created_at, updated_at
		 FROM accounts
		 ORDER BY CAST(balance AS REAL) DESC, actor_id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, limit)
	for rows.Next() {
		acct, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}
	return accounts, nil
}

// AppendTransaction inserts one journal entry.
func (s *Store) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("transaction id is required")
	}
	if !txn.Kind.Valid() {
		return fmt.Errorf("transaction kind %q is invalid", txn.Kind)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO transactions (id, from_actor_id, to_actor_id, amount, kind, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.FromActorID,
		txn.ToActorID,
		txn.Amount.String(),
		string(txn.Kind),
		txn.Description,
		toMillis(txn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// TransactionsByActor returns up to limit journal entries involving the
// actor, most recent first.
func (s *Store) TransactionsByActor(ctx context.Context, actorID string, limit int) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, from_actor_id, to_actor_id, amount, kind, description, created_at
		 FROM transactions
		 WHERE from_actor_id = ? OR to_actor_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		actorID,
		actorID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("transactions by actor: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		entry, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return entries, nil
}

// CreateLoan inserts the loan and writes the disbursed account row in one
// transaction.
func (s *Store) CreateLoan(ctx context.Context, loan domain.Loan, disbursed domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(loan.ID) == "" {
		return fmt.Errorf("loan id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO loans (id, actor_id, principal, rate, remaining, issued_at, due_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID,
		loan.ActorID,
		loan.Principal.String(),
		loan.Rate.String(),
		loan.Remaining.String(),
		toMillis(loan.IssuedAt),
		toMillis(loan.DueAt),
		string(loan.Status),
	); err != nil {
		return fmt.Errorf("create loan: %w", err)
	}

	if err := updateAccountRow(ctx, tx, disbursed); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit loan: %w", err)
	}
	return nil
}

// ActiveLoanByActor returns the actor's active loan or ErrNotFound.
func (s *Store) ActiveLoanByActor(ctx context.Context, actorID string) (domain.Loan, error) {
	if err := ctx.Err(); err != nil {
		return domain.Loan{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Loan{}, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.Loan{}, fmt.Errorf("actor id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, actor_id, principal, rate, remaining, issued_at, due_at, status
		 FROM loans
		 WHERE actor_id = ? AND status = ?`,
		actorID,
		string(domain.LoanStatusActive),
	)
	loan, err := scanLoan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Loan{}, storage.ErrNotFound
		}
		return domain.Loan{}, fmt.Errorf("active loan by actor: %w", err)
	}
	return loan, nil
}

// SettleLoanPayment writes the loan and the payer account row in one
// transaction.
func (s *Store) SettleLoanPayment(ctx context.Context, loan domain.Loan, payer domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE loans SET remaining = ?, status = ? WHERE id = ?`,
		loan.Remaining.String(),
		string(loan.Status),
		loan.ID,
	)
	if err != nil {
		return fmt.Errorf("settle loan payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle loan payment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err := updateAccountRow(ctx, tx, payer); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit loan payment: %w", err)
	}
	return nil
}

// PutItem upserts one catalog item keyed by its lower-cased name.
func (s *Store) PutItem(ctx context.Context, item domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return fmt.Errorf("item name is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO items (name_key, name, price, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name_key) DO UPDATE SET
		   name = excluded.name,
		   price = excluded.price,
		   description = excluded.description,
		   updated_at = excluded.updated_at`,
		strings.ToLower(name),
		name,
		item.Price.String(),
		item.Description,
		toMillis(item.CreatedAt),
		toMillis(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// GetItem returns one catalog item by case-insensitive name.
func (s *Store) GetItem(ctx context.Context, name string) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Item{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("item name is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, price, description, created_at, updated_at
		 FROM items
		 WHERE name_key = ?`,
		strings.ToLower(name),
	)
	item, err := scanItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, storage.ErrNotFound
		}
		return domain.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// DeleteItem removes one catalog item by case-insensitive name.
func (s *Store) DeleteItem(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("item name is required")
	}

	res, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM items WHERE name_key = ?`,
		strings.ToLower(name),
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListItems returns all catalog items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT name, price, description, created_at, updated_at
		 FROM items
		 ORDER BY name_key ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

// AppendSettlementRun inserts one settlement pass summary.
func (s *Store) AppendSettlementRun(ctx context.Context, run storage.SettlementRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO settlement_runs (started_at, finished_at, accounts_seen,
		   accounts_settled, interest_paid, failures)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		toMillis(run.StartedAt),
		toMillis(run.FinishedAt),
		run.AccountsSeen,
		run.AccountsSettled,
		run.InterestPaid.String(),
		run.Failures,
	)
	if err != nil {
		return fmt.Errorf("append settlement run: %w", err)
	}
	return nil
}

// SettlementRuns returns up to limit pass summaries, most recent first.
func (s *Store) SettlementRuns(ctx context.Context, limit int) ([]storage.SettlementRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, accounts_seen, accounts_settled, interest_paid, failures
		 FROM settlement_runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("settlement runs: %w", err)
	}
	defer rows.Close()

	runs := make([]storage.SettlementRun, 0, limit)
	for rows.Next() {
		run, err := scanSettlementRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan settlement run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlement run rows: %w", err)
	}
	return runs, nil
}

func updateAccountRow(ctx context.Context, ex execContext, acct domain.Account) error {
	actorID := strings.TrimSpace(acct.ActorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}

	res, err := ex.ExecContext(
		ctx,
		`UPDATE accounts SET balance = ?, total_earned = ?, total_spent = ?,
		   last_interest_at = ?, last_bonus_at = ?, updated_at = ?
		 WHERE actor_id = ?`,
		acct.Balance.String(),
		acct.TotalEarned.String(),
		acct.TotalSpent.String(),
		toMillis(acct.LastInterestAt),
		toMillisOrZero(acct.LastBonusAt),
		toMillis(acct.UpdatedAt),
		actorID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanAccount(scan scanner) (domain.Account, error) {
	var (
		acct           domain.Account
		balance        string
		totalEarned    string
		totalSpent     string
		lastInterestAt int64
		lastBonusAt    int64
		createdAt      int64
		updatedAt      int64
	)
	if err := scan(
		&acct.ActorID,
		&balance,
		&totalEarned,
		&totalSpent,
		&lastInterestAt,
		&lastBonusAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Account{}, err
	}

	var err error
	if acct.Balance, err = parseDecimal("balance", balance); err != nil {
		return domain.Account{}, err
	}
	if acct.TotalEarned, err = parseDecimal("total_earned", totalEarned); err != nil {
		return domain.Account{}, err
	}
	if acct.TotalSpent, err = parseDecimal("total_spent", totalSpent); err != nil {
		return domain.Account{}, err
	}
	acct.LastInterestAt = fromMillis(lastInterestAt)
	acct.LastBonusAt = fromMillisOrZero(lastBonusAt)
	acct.CreatedAt = fromMillis(createdAt)
	acct.UpdatedAt = fromMillis(updatedAt)
	return acct, nil
}

func scanTransaction(scan scanner) (domain.Transaction, error) {
	var (
		entry     domain.Transaction
		amount    string
		kind      string
		createdAt int64
	)
	if err := scan(
		&entry.ID,
		&entry.FromActorID,
		&entry.ToActorID,
		&amount,
		&kind,
		&entry.Description,
		&createdAt,
	); err != nil {
		return domain.Transaction{}, err
	}

	var err error
	if entry.Amount, err = parseDecimal("amount", amount); err != nil {
		return domain.Transaction{}, err
	}
	entry.Kind = domain.Kind(kind)
	entry.CreatedAt = fromMillis(createdAt)
	return entry, nil
}

func scanLoan(scan scanner) (domain.Loan, error) {
	var (
		loan      domain.Loan
		principal string
		rate      string
		remaining string
		issuedAt  int64
		dueAt     int64
		status    string
	)
	if err := scan(
		&loan.ID,
		&loan.ActorID,
		&principal,
		&rate,
		&remaining,
		&issuedAt,
		&dueAt,
		&status,
	); err != nil {
		return domain.Loan{}, err
	}

	var err error
	if loan.Principal, err = parseDecimal("principal", principal); err != nil {
		return domain.Loan{}, err
	}
	if loan.Rate, err = parseDecimal("rate", rate); err != nil {
		return domain.Loan{}, err
	}
	if loan.Remaining, err = parseDecimal("remaining", remaining); err != nil {
		return domain.Loan{}, err
	}
	loan.IssuedAt = fromMillis(issuedAt)
	loan.DueAt = fromMillis(dueAt)
	loan.Status = domain.LoanStatus(status)
	return loan, nil
}

func scanItem(scan scanner) (domain.Item, error) {
	var (
		item      domain.Item
		price     string
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&item.Name,
		&price,
		&item.Description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Item{}, err
	}

	var err error
	if item.Price, err = parseDecimal("price", price); err != nil {
		return domain.Item{}, err
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

func scanSettlementRun(scan scanner) (storage.SettlementRun, error) {
	var (
		run          storage.SettlementRun
		interestPaid string
		startedAt    int64
		finishedAt   int64
	)
	if err := scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.AccountsSeen,
		&run.AccountsSettled,
		&interestPaid,
		&run.Failures,
	); err != nil {
		return storage.SettlementRun{}, err
	}

	var err error
	if run.InterestPaid, err = parseDecimal("interest_paid", interestPaid); err != nil {
		return storage.SettlementRun{}, err
	}
	run.StartedAt = fromMillis(startedAt)
	run.FinishedAt = fromMillis(finishedAt)
	return run, nil
}

var _ storage.Store = (*Store)(nil)
