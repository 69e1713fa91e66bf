package migrations

import "embed"

// FS contains embedded SQLite migrations for turn state storage.
//
//go:embed *.sql
var FS embed.FS
