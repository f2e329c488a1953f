// Package migrations contains embedded SQL migration files for the
// persistent vector index.
package migrations

import "embed"

// FS contains all SQL migration files.
//
//go:embed *.sql
var FS embed.FS
