// Package domain defines the core economy entities and their pure mutation rules.
//
// The model is centered around three records:
//
// # Account
//
// An Account tracks one actor's monetary state: the current balance, lifetime
// earned/spent accumulators, and the timestamps that gate interest accrual and
// the daily bonus. Balances are decimal values bounded to [0, MaxBalance].
//
// # Transaction
//
// A Transaction is an immutable journal row describing one balance movement.
// Either the source or the destination actor may be absent, which models
// system-issued movements such as interest or admin adjustments.
//
// # Loan
//
// A Loan is one outstanding debt obligation. The amount owed starts at
// principal plus interest and only decreases; the status moves from active to
// paid exactly once.
//
// All mutation rules live in Apply* functions that validate their inputs and
// return updated copies without performing I/O or taking locks. Callers decide
// when a candidate state becomes durable, which keeps the store-before-cache
// write ordering out of this package entirely.
package domain
