// Package migrations embeds the goose migrations for each supported database.
// Files live in one directory per dialect: sqlite/ and postgres/.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS
