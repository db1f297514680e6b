// Package migrations embeds the catalog schema migration files so the
// engine deploys as a single binary without external SQL assets.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
