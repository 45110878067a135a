// Package migrations embeds the SQL schema files for the run store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
