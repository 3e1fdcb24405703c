package mysql

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
)

// MySQLMigrationProvider implements storage.MigrationProvider for MySQL.
type MySQLMigrationProvider struct {
	migrator sqlcommon.GooseMigrator
}

func NewMySQLMigrationProvider() *MySQLMigrationProvider {
	return &MySQLMigrationProvider{
		migrator: sqlcommon.GooseMigrator{
			Engine:     "mysql",
			Dialect:    goose.DialectMySQL,
			Driver:     "mysql",
			Migrations: assets.MySQLMigrationDir,
			PrepareURI: prepareMySQLURI,
		},
	}
}

// GetSupportedEngine names the engine this provider migrates.
func (m *MySQLMigrationProvider) GetSupportedEngine() string {
	return "mysql"
}

func (m *MySQLMigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	return m.migrator.RunMigrations(ctx, config)
}

func (m *MySQLMigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	return m.migrator.GetCurrentVersion(ctx, config)
}

// prepareMySQLURI folds configured credential overrides into the DSN.
func prepareMySQLURI(config storage.MigrationConfig) (string, error) {
	dsn, err := mysql.ParseDSN(config.URI)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}

	if config.Username != "" {
		dsn.User = config.Username
	}
	if config.Password != "" {
		dsn.Passwd = config.Password
	}

	return dsn.FormatDSN(), nil
}
