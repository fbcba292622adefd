// Package migrations embeds the goose SQL migrations into the binary so the
// engine can migrate itself on startup.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
