// Package migrations embeds the SQL migration files consumed by
// storage.NewMigrator via bun/migrate's fs.FS discovery.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
