// Package migrations embeds the database schema.
package migrations

import _ "embed"

//go:embed init.sql
var InitSQL string
