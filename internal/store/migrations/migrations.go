// Package migrations embeds the goose SQL migrations for the parcel store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
