// Package bbolt provides a BoltDB-backed treasury storage implementation.
// Records are JSON-encoded; journal entries are indexed per actor under
// nested buckets with time-ordered keys.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tavernworks/treasury/internal/economy/domain"
	"github.com/tavernworks/treasury/internal/storage"
)

const (
	accountBucket       = "accounts"
	journalBucket       = "journal"
	loanBucket          = "loans"
	activeLoanBucket    = "loan_active"
	itemBucket          = "items"
	settlementRunBucket = "settlement_runs"
)

// Store provides a BoltDB-backed treasury store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateAccount persists a new account record.
func (s *Store) CreateAccount(ctx context.Context, acct domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	actorID := strings.TrimSpace(acct.ActorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}

	payload, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("accounts bucket is missing")
		}
		if bucket.Get([]byte(actorID)) != nil {
			return fmt.Errorf("account %s already exists", actorID)
		}
		return bucket.Put([]byte(actorID), payload)
	})
}

// GetAccount fetches an account record by actor ID.
func (s *Store) GetAccount(ctx context.Context, actorID string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}
	if s == nil || s.db == nil {
		return domain.Account{}, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.Account{}, fmt.Errorf("actor id is required")
	}

	var acct domain.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("accounts bucket is missing")
		}
		payload := bucket.Get([]byte(actorID))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &acct); err != nil {
			return fmt.Errorf("unmarshal account: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return acct, nil
}

// UpdateAccount overwrites an existing account record.
func (s *Store) UpdateAccount(ctx context.Context, acct domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return updateAccountRecord(tx, acct)
	})
}

// UpdateAccountPair overwrites both account records in one transaction.
func (s *Store) UpdateAccountPair(ctx context.Context, a, b domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := updateAccountRecord(tx, a); err != nil {
			return err
		}
		return updateAccountRecord(tx, b)
	})
}

// TopAccounts returns up to limit accounts ordered by descending balance.
func (s *Store) TopAccounts(ctx context.Context, limit int) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	var accounts []domain.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(accountBucket))
		if bucket == nil {
			return fmt.Errorf("accounts bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var acct domain.Account
			if err := json.Unmarshal(payload, &acct); err != nil {
				return fmt.Errorf("unmarshal account: %w", err)
			}
			accounts = append(accounts, acct)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		if cmp := accounts[i].Balance.Cmp(accounts[j].Balance); cmp != 0 {
			return cmp > 0
		}
		return accounts[i].ActorID < accounts[j].ActorID
	})
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// AppendTransaction writes a journal entry under each involved actor.
func (s *Store) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(txn.ID) == "" {
		return fmt.Errorf("transaction id is required")
	}
	if !txn.Kind.Valid() {
		return fmt.Errorf("transaction kind %q is invalid", txn.Kind)
	}

	payload, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	key := journalKey(txn.CreatedAt, txn.ID)

	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(journalBucket))
		if root == nil {
			return fmt.Errorf("journal bucket is missing")
		}
		for _, actorID := range journalEndpoints(txn) {
			bucket, err := root.CreateBucketIfNotExists([]byte(actorID))
			if err != nil {
				return fmt.Errorf("create journal bucket for %s: %w", actorID, err)
			}
			if err := bucket.Put(key, payload); err != nil {
				return fmt.Errorf("append journal entry for %s: %w", actorID, err)
			}
		}
		return nil
	})
}

// TransactionsByActor returns up to limit journal entries involving the
// actor, most recent first.
func (s *Store) TransactionsByActor(ctx context.Context, actorID string, limit int) ([]domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	entries := make([]domain.Transaction, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(journalBucket))
		if root == nil {
			return fmt.Errorf("journal bucket is missing")
		}
		bucket := root.Bucket([]byte(actorID))
		if bucket == nil {
			return nil
		}
		cursor := bucket.Cursor()
		for key, payload := cursor.Last(); key != nil && len(entries) < limit; key, payload = cursor.Prev() {
			var entry domain.Transaction
			if err := json.Unmarshal(payload, &entry); err != nil {
				return fmt.Errorf("unmarshal journal entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateLoan persists the loan, indexes it as the actor's active loan, and
// overwrites the disbursed account record in one transaction.
func (s *Store) CreateLoan(ctx context.Context, loan domain.Loan, disbursed domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(loan.ID) == "" {
		return fmt.Errorf("loan id is required")
	}

	payload, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("marshal loan: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		loans := tx.Bucket([]byte(loanBucket))
		if loans == nil {
			return fmt.Errorf("loans bucket is missing")
		}
		active := tx.Bucket([]byte(activeLoanBucket))
		if active == nil {
			return fmt.Errorf("active loan bucket is missing")
		}
		if active.Get([]byte(loan.ActorID)) != nil {
			return fmt.Errorf("actor %s already has an active loan", loan.ActorID)
		}
		if err := loans.Put([]byte(loan.ID), payload); err != nil {
			return fmt.Errorf("create loan: %w", err)
		}
		if err := active.Put([]byte(loan.ActorID), []byte(loan.ID)); err != nil {
			return fmt.Errorf("index active loan: %w", err)
		}
		return updateAccountRecord(tx, disbursed)
	})
}

// ActiveLoanByActor returns the actor's active loan or ErrNotFound.
func (s *Store) ActiveLoanByActor(ctx context.Context, actorID string) (domain.Loan, error) {
	if err := ctx.Err(); err != nil {
		return domain.Loan{}, err
	}
	if s == nil || s.db == nil {
		return domain.Loan{}, fmt.Errorf("storage is not configured")
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.Loan{}, fmt.Errorf("actor id is required")
	}

	var loan domain.Loan
	err := s.db.View(func(tx *bbolt.Tx) error {
		active := tx.Bucket([]byte(activeLoanBucket))
		if active == nil {
			return fmt.Errorf("active loan bucket is missing")
		}
		loanID := active.Get([]byte(actorID))
		if loanID == nil {
			return storage.ErrNotFound
		}
		loans := tx.Bucket([]byte(loanBucket))
		if loans == nil {
			return fmt.Errorf("loans bucket is missing")
		}
		payload := loans.Get(loanID)
		if payload == nil {
			return fmt.Errorf("active loan %s has no record", loanID)
		}
		if err := json.Unmarshal(payload, &loan); err != nil {
			return fmt.Errorf("unmarshal loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Loan{}, err
	}
	return loan, nil
}

// SettleLoanPayment overwrites the loan and the payer account record in one
// transaction, dropping the active index once the loan is paid.
func (s *Store) SettleLoanPayment(ctx context.Context, loan domain.Loan, payer domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	payload, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("marshal loan: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		loans := tx.Bucket([]byte(loanBucket))
		if loans == nil {
			return fmt.Errorf("loans bucket is missing")
		}
		if loans.Get([]byte(loan.ID)) == nil {
			return storage.ErrNotFound
		}
		if err := loans.Put([]byte(loan.ID), payload); err != nil {
			return fmt.Errorf("settle loan payment: %w", err)
		}
		if loan.Status != domain.LoanStatusActive {
			active := tx.Bucket([]byte(activeLoanBucket))
			if active == nil {
				return fmt.Errorf("active loan bucket is missing")
			}
			if err := active.Delete([]byte(loan.ActorID)); err != nil {
				return fmt.Errorf("drop active loan index: %w", err)
			}
		}
		return updateAccountRecord(tx, payer)
	})
}

// PutItem upserts a catalog item keyed by its lower-cased name. The original
// creation time survives upserts.
func (s *Store) PutItem(ctx context.Context, item domain.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return fmt.Errorf("item name is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return fmt.Errorf("items bucket is missing")
		}
		key := itemKey(name)
		if existing := bucket.Get(key); existing != nil {
			var prior domain.Item
			if err := json.Unmarshal(existing, &prior); err != nil {
				return fmt.Errorf("unmarshal item: %w", err)
			}
			item.CreatedAt = prior.CreatedAt
		}
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}
		return bucket.Put(key, payload)
	})
}

// GetItem fetches a catalog item by case-insensitive name.
func (s *Store) GetItem(ctx context.Context, name string) (domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return domain.Item{}, err
	}
	if s == nil || s.db == nil {
		return domain.Item{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("item name is required")
	}

	var item domain.Item
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return fmt.Errorf("items bucket is missing")
		}
		payload := bucket.Get(itemKey(name))
		if payload == nil {
			return storage.ErrNotFound
		}
		if err := json.Unmarshal(payload, &item); err != nil {
			return fmt.Errorf("unmarshal item: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

// DeleteItem removes a catalog item by case-insensitive name.
func (s *Store) DeleteItem(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("item name is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return fmt.Errorf("items bucket is missing")
		}
		key := itemKey(name)
		if bucket.Get(key) == nil {
			return storage.ErrNotFound
		}
		return bucket.Delete(key)
	})
}

// ListItems returns all catalog items ordered by name.
func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var items []domain.Item
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemBucket))
		if bucket == nil {
			return fmt.Errorf("items bucket is missing")
		}
		return bucket.ForEach(func(_, payload []byte) error {
			var item domain.Item
			if err := json.Unmarshal(payload, &item); err != nil {
				return fmt.Errorf("unmarshal item: %w", err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AppendSettlementRun persists a settlement pass summary with a
// store-assigned sequence ID.
func (s *Store) AppendSettlementRun(ctx context.Context, run storage.SettlementRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settlementRunBucket))
		if bucket == nil {
			return fmt.Errorf("settlement runs bucket is missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next settlement run sequence: %w", err)
		}
		run.ID = int64(seq)
		payload, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal settlement run: %w", err)
		}
		return bucket.Put(settlementRunKey(seq), payload)
	})
}

// SettlementRuns returns up to limit pass summaries, most recent first.
func (s *Store) SettlementRuns(ctx context.Context, limit int) ([]storage.SettlementRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	runs := make([]storage.SettlementRun, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(settlementRunBucket))
		if bucket == nil {
			return fmt.Errorf("settlement runs bucket is missing")
		}
		cursor := bucket.Cursor()
		for key, payload := cursor.Last(); key != nil && len(runs) < limit; key, payload = cursor.Prev() {
			var run storage.SettlementRun
			if err := json.Unmarshal(payload, &run); err != nil {
				return fmt.Errorf("unmarshal settlement run: %w", err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) ensureBuckets() error {
	buckets := []string{
		accountBucket,
		journalBucket,
		loanBucket,
		activeLoanBucket,
		itemBucket,
		settlementRunBucket,
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func updateAccountRecord(tx *bbolt.Tx, acct domain.Account) error {
	actorID := strings.TrimSpace(acct.ActorID)
	if actorID == "" {
		return fmt.Errorf("actor id is required")
	}
	bucket := tx.Bucket([]byte(accountBucket))
	if bucket == nil {
		return fmt.Errorf("accounts bucket is missing")
	}
	if bucket.Get([]byte(actorID)) == nil {
		return storage.ErrNotFound
	}
	payload, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return bucket.Put([]byte(actorID), payload)
}

// journalKey orders entries chronologically within an actor's sub-bucket;
// the ID suffix keeps same-millisecond entries distinct.
func journalKey(createdAt time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d/%s", createdAt.UTC().UnixMilli(), id))
}

func journalEndpoints(txn domain.Transaction) []string {
	endpoints := make([]string, 0, 2)
	if txn.FromActorID != "" {
		endpoints = append(endpoints, txn.FromActorID)
	}
	if txn.ToActorID != "" && txn.ToActorID != txn.FromActorID {
		endpoints = append(endpoints, txn.ToActorID)
	}
	return endpoints
}

func itemKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}

func settlementRunKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

var _ storage.Store = (*Store)(nil)
