package sqlite

import (
	"context"

	"github.com/pressly/goose/v3"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
)

// SQLiteMigrationProvider implements storage.MigrationProvider for SQLite.
type SQLiteMigrationProvider struct {
	migrator sqlcommon.GooseMigrator
}

func NewSQLiteMigrationProvider() *SQLiteMigrationProvider {
	return &SQLiteMigrationProvider{
		migrator: sqlcommon.GooseMigrator{
			Engine:     "sqlite",
			Dialect:    goose.DialectSQLite3,
			Driver:     "sqlite",
			Migrations: assets.SqliteMigrationDir,
			PrepareURI: func(config storage.MigrationConfig) (string, error) {
				return PrepareDSN(config.URI)
			},
		},
	}
}

// GetSupportedEngine names the engine this provider migrates.
func (s *SQLiteMigrationProvider) GetSupportedEngine() string {
	return "sqlite"
}

func (s *SQLiteMigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	return s.migrator.RunMigrations(ctx, config)
}

func (s *SQLiteMigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	return s.migrator.GetCurrentVersion(ctx, config)
}
