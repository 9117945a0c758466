// Package migrations embeds the PostgreSQL schema applied at startup by
// database.Migrate.
package migrations

import "embed"

// FS holds the *.up.sql files in apply order.
//
//go:embed *.sql
var FS embed.FS
