package economy

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tavernworks/treasury/internal/economy/domain"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
)

// Ledger is the in-memory, write-through account cache and the engine that
// mutates it. Each cached actor owns an entry with its own mutex; the map
// mutex guards only entry insertion, removal and lookup.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*entry

	store    storage.Store
	settings atomic.Pointer[Settings]

	now   func() time.Time
	newID func() (string, error)
}

// entry is one cached account. Field access requires holding mu. loaded
// flips once the store round-trip finished; removed marks an entry that was
// taken out of the map while a waiter still held a reference to it.
type entry struct {
	mu      sync.Mutex
	acct    domain.Account
	loaded  bool
	removed bool
}

// NewLedger creates a ledger over the given store. The settings are
// validated and become the initial snapshot.
func NewLedger(store storage.Store, settings Settings) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	ledger := &Ledger{
		entries: make(map[string]*entry),
		store:   store,
		now:     time.Now,
		newID:   domain.NewID,
	}
	ledger.settings.Store(&settings)
	return ledger, nil
}

// Settings returns the current settings snapshot. Every operation reads one
// coherent snapshot; a concurrent ApplySettings affects only later reads.
func (l *Ledger) Settings() Settings {
	return *l.settings.Load()
}

// ApplySettings swaps the settings snapshot at runtime. Invalid settings are
// rejected as a whole and the current snapshot stays in place.
func (l *Ledger) ApplySettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	l.settings.Store(&settings)
	return nil
}

// Load returns the actor's cached account, fetching or creating it in the
// store on a cache miss. Concurrent loads for one actor serialize on the
// entry mutex, so the account is created at most once. A store failure
// removes the placeholder and is returned; nothing is fabricated.
func (l *Ledger) Load(ctx context.Context, actorID string) (domain.Account, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.Account{}, domain.ErrEmptyActorID
	}

	for {
		l.mu.Lock()
		e, ok := l.entries[actorID]
		if !ok {
			e = &entry{}
			l.entries[actorID] = e
		}
		l.mu.Unlock()

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		if e.loaded {
			acct := e.acct
			e.mu.Unlock()
			return acct, nil
		}

		acct, err := l.fetchOrCreate(ctx, actorID)
		if err != nil {
			e.removed = true
			l.mu.Lock()
			delete(l.entries, actorID)
			l.mu.Unlock()
			e.mu.Unlock()
			return domain.Account{}, err
		}
		e.acct = acct
		e.loaded = true
		e.mu.Unlock()
		return acct, nil
	}
}

func (l *Ledger) fetchOrCreate(ctx context.Context, actorID string) (domain.Account, error) {
	acct, err := l.store.GetAccount(ctx, actorID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Account{}, storeError("load account", err)
	}

	acct, err = domain.NewAccount(actorID, l.Settings().StartingBalance, l.now())
	if err != nil {
		return domain.Account{}, err
	}
	if err := l.store.CreateAccount(ctx, acct); err != nil {
		return domain.Account{}, storeError("create account", err)
	}
	return acct, nil
}

// Evict flushes the actor's account to the store and removes it from the
// cache. Evicting an absent actor is a no-op. A flush failure keeps the
// entry cached so no state is lost.
func (l *Ledger) Evict(ctx context.Context, actorID string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return domain.ErrEmptyActorID
	}

	l.mu.Lock()
	e, ok := l.entries[actorID]
	l.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || !e.loaded {
		return nil
	}
	if err := l.store.UpdateAccount(ctx, e.acct); err != nil {
		return storeError("flush account", err)
	}
	e.removed = true
	l.mu.Lock()
	delete(l.entries, actorID)
	l.mu.Unlock()
	return nil
}

// Peek returns a copy of the cached account without touching the store.
func (l *Ledger) Peek(actorID string) (domain.Account, bool) {
	l.mu.Lock()
	e, ok := l.entries[actorID]
	l.mu.Unlock()
	if !ok {
		return domain.Account{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || !e.loaded {
		return domain.Account{}, false
	}
	return e.acct, true
}

// CachedActors returns a sorted snapshot of the cached actor IDs.
func (l *Ledger) CachedActors() []string {
	l.mu.Lock()
	actors := make([]string, 0, len(l.entries))
	for actorID := range l.entries {
		actors = append(actors, actorID)
	}
	l.mu.Unlock()
	sort.Strings(actors)
	return actors
}

// lockedEntry returns the actor's entry with its mutex held. The caller must
// unlock it. Actors that are not cached are an operation-level failure, not
// a trigger for a load.
func (l *Ledger) lockedEntry(actorID string) (*entry, error) {
	l.mu.Lock()
	e, ok := l.entries[actorID]
	l.mu.Unlock()
	if !ok {
		return nil, errNotCached(actorID)
	}

	e.mu.Lock()
	if e.removed || !e.loaded {
		e.mu.Unlock()
		return nil, errNotCached(actorID)
	}
	return e, nil
}

// lockedPair returns both actors' entries with their mutexes held, acquired
// in ascending actor-ID order so opposing transfers cannot deadlock.
func (l *Ledger) lockedPair(fromID, toID string) (*entry, *entry, error) {
	firstID, secondID := fromID, toID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := l.lockedEntry(firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := l.lockedEntry(secondID)
	if err != nil {
		first.mu.Unlock()
		return nil, nil, err
	}

	if firstID == fromID {
		return first, second, nil
	}
	return second, first, nil
}

// appendHistory journals a mutation, generating the entry ID. Appends are
// best-effort: a failure is logged and the completed mutation stands.
func (l *Ledger) appendHistory(ctx context.Context, txn domain.Transaction) {
	id, err := l.newID()
	if err != nil {
		log.Printf("history id generation failed kind=%s: %v", txn.Kind, err)
		return
	}
	txn.ID = id
	if err := l.store.AppendTransaction(ctx, txn); err != nil {
		log.Printf("history append failed kind=%s amount=%s: %v", txn.Kind, txn.Amount, err)
	}
}

func errNotCached(actorID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeAccountNotCached,
		"account "+actorID+" is not loaded",
		map[string]string{"ActorID": actorID},
	)
}

func storeError(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeStoreUnavailable, "store unavailable during "+op, err)
}
