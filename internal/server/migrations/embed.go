// Package migrations embeds the goose SQL migrations of the server schema.
// The statements are kept to the subset shared by PostgreSQL and SQLite.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
