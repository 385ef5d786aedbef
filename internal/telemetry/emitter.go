package telemetry

import (
	"context"
	"time"

	"github.com/tavernworks/treasury/internal/storage"
)

const (
	defaultRunLimit = 10
	maxRunLimit     = 100
)

// Emitter records settlement pass summaries.
type Emitter struct {
	store storage.SettlementRunStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.SettlementRunStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// RecordRun persists one settlement run. It is a no-op when the store is
// nil, so callers never guard their telemetry writes.
func (e *Emitter) RecordRun(ctx context.Context, run storage.SettlementRun) error {
	if e == nil || e.store == nil {
		return nil
	}
	if run.FinishedAt.IsZero() {
		if e.clock == nil {
			run.FinishedAt = time.Now().UTC()
		} else {
			run.FinishedAt = e.clock().UTC()
		}
	}
	return e.store.AppendSettlementRun(ctx, run)
}

// Runs returns up to limit recorded passes, most recent first. Limits
// outside [1, 100] clamp to the defaults. A nil emitter or store reports
// no runs.
func (e *Emitter) Runs(ctx context.Context, limit int) ([]storage.SettlementRun, error) {
	if e == nil || e.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	return e.store.SettlementRuns(ctx, limit)
}
