// Package migrations embeds the goose SQL migration files applied by the
// local store at open time.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
