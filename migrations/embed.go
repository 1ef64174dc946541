// Package migrations embeds the SQL schema migrations.
package migrations

import "embed"

// Postgres holds the PostgreSQL migrations under the "postgres" directory.
//
//go:embed postgres/*.sql
var Postgres embed.FS
