// Package migrations embeds the goose SQL migrations that create the
// feature_flags schema.
package migrations

import "embed"

// FS contains all goose migration SQL files.
//
//go:embed *.sql
var FS embed.FS

// Dir is the goose directory name for FS.
const Dir = "."
