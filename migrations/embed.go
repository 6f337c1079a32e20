// Package migrations embeds the goose SQL migrations for PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations.
const Dir = "."
