// Package migrations holds the versioned SQL schema, embedded so the
// migrate command and integration tests need no files on disk.
package migrations

import "embed"

// FS contains every *.up.sql / *.down.sql pair
//
//go:embed *.sql
var FS embed.FS
