// Package migrations embeds the report cache schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
