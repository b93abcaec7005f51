// Package migrations embeds the SQL schema applied by database.RunMigrations.
package migrations

import "embed"

// FS holds every *.up.sql file in apply order by name.
//
//go:embed *.sql
var FS embed.FS
