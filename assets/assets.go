// Package assets embeds the database schema migrations shipped with the
// binary.
package assets

import "embed"

const (
	PostgresMigrationDir = "migrations/postgres"
	MySQLMigrationDir    = "migrations/mysql"
	SqliteMigrationDir   = "migrations/sqlite"
)

//go:embed migrations/*
var EmbedMigrations embed.FS
