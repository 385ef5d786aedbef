// Package storage defines the persistence interfaces for the treasury
// ledger.
//
// It provides a high-level abstraction for storing accounts, the
// transaction journal, loans, the shop catalog, and settlement run
// summaries. Implementations of these interfaces (SQLite, Bolt) live in
// subpackages.
//
// # Error Types
//
// The package defines common error types used across storage implementations:
//   - ErrNotFound: Indicates a requested record is missing.
package storage
