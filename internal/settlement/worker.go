// Package settlement sweeps cached accounts on a fixed cadence, applying
// interest to those whose accrual window has elapsed and recording a
// summary row per pass.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tavernworks/treasury/internal/economy"
	apperrors "github.com/tavernworks/treasury/internal/errors"
	"github.com/tavernworks/treasury/internal/storage"
	"github.com/tavernworks/treasury/internal/telemetry"
)

// DefaultPassInterval is the sweep cadence when none is configured. Passes
// are cheap no-ops for accounts still inside their accrual window, so the
// cadence only bounds how late an account can settle.
const DefaultPassInterval = time.Minute

// Config controls worker loop behavior.
type Config struct {
	PassInterval time.Duration
}

func (c Config) normalized() Config {
	if c.PassInterval <= 0 {
		c.PassInterval = DefaultPassInterval
	}
	return c
}

// Worker owns the settlement loop.
type Worker struct {
	ledger  *economy.Ledger
	emitter *telemetry.Emitter
	config  Config
	clock   func() time.Time
}

// New creates a settlement worker. The emitter may be nil, in which case
// pass summaries are not persisted.
func New(ledger *economy.Ledger, emitter *telemetry.Emitter, cfg Config) *Worker {
	return &Worker{
		ledger:  ledger,
		emitter: emitter,
		config:  cfg.normalized(),
		clock:   time.Now,
	}
}

// Start launches the loop in a goroutine when interest is enabled at
// startup. The returned stop cancels the loop and blocks until it drains.
// A runtime toggle pauses accrual inside a running loop but never starts
// one, so a disabled boot returns a no-op stop.
func (w *Worker) Start(ctx context.Context) (stop func()) {
	if w == nil || w.ledger == nil || !w.ledger.Settings().InterestEnabled {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("settlement: loop stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Run executes settlement passes until ctx is canceled. The first pass
// runs immediately rather than waiting out a full interval.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.ledger == nil {
		return fmt.Errorf("settlement worker requires a ledger")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w.Pass(ctx)

	ticker := time.NewTicker(w.config.PassInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Pass(ctx)
		}
	}
}

// Pass sweeps every cached account once, sharing a single pass timestamp
// so window math is consistent across the sweep. A failing account is
// counted and logged without aborting the rest of the pass.
func (w *Worker) Pass(ctx context.Context) storage.SettlementRun {
	ctx, span := otel.Tracer("treasury/settlement").Start(ctx, "settlement.pass")
	defer span.End()

	startedAt := w.clock().UTC()
	run := storage.SettlementRun{
		StartedAt:    startedAt,
		InterestPaid: decimal.Zero,
	}

	for _, actorID := range w.ledger.CachedActors() {
		if ctx.Err() != nil {
			break
		}
		run.AccountsSeen++

		res, err := w.ledger.AccrueInterest(ctx, actorID, startedAt)
		if err != nil {
			// evicted between the listing and the visit
			if apperrors.IsCode(err, apperrors.CodeAccountNotCached) {
				continue
			}
			run.Failures++
			log.Printf("settlement: accrue interest for %s: %v", actorID, err)
			continue
		}
		if res.Applied {
			run.AccountsSettled++
			run.InterestPaid = run.InterestPaid.Add(res.Interest)
		}
	}

	run.FinishedAt = w.clock().UTC()
	span.SetAttributes(
		attribute.Int("settlement.accounts_seen", run.AccountsSeen),
		attribute.Int("settlement.accounts_settled", run.AccountsSettled),
		attribute.Int("settlement.failures", run.Failures),
	)
	if err := w.emitter.RecordRun(ctx, run); err != nil {
		log.Printf("settlement: record run: %v", err)
	}
	return run
}
