// Package migrations embeds the SQLite schema for the calendar store.
package migrations

import "embed"

// FS contains embedded SQLite migrations for calendar storage.
//
//go:embed *.sql
var FS embed.FS
