package migrations

import "embed"

// FS contains embedded SQLite migrations for treasury storage.
//
//go:embed *.sql
var FS embed.FS
