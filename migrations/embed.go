// Package migrations embeds the SQL migration files so they can be applied
// through the goose programmatic API by the migrate command and by
// integration test setup, without depending on a filesystem path at runtime.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
