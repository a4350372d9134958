// Package migrations embeds the SQL schema of the correction audit trail.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
