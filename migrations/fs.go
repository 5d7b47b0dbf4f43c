// Package migrations holds the embedded SQL schema applied by
// internal/migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
