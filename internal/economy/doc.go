// Package economy implements the treasury core: a write-through cache of
// per-actor accounts and the operations that mutate it.
//
// The Ledger holds one entry per cached actor, each with its own mutex, so
// unrelated actors never serialize against each other. Every operation
// validates against a pure domain.Apply* candidate, writes the durable
// store, and only then commits the candidate to the cache, all before the
// per-actor lock is released. Two-party operations lock both entries in
// ascending actor-ID order. Expected negative outcomes (bonus cooldown,
// accrual interval not elapsed) come back inside result structs; rule
// violations come back as coded errors; store failures abort before the
// cache changes.
package economy
