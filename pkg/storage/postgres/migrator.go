package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pressly/goose/v3"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
)

// PostgresMigrationProvider implements storage.MigrationProvider for PostgreSQL.
type PostgresMigrationProvider struct {
	migrator sqlcommon.GooseMigrator
}

func NewPostgresMigrationProvider() *PostgresMigrationProvider {
	return &PostgresMigrationProvider{
		migrator: sqlcommon.GooseMigrator{
			Engine:     "postgres",
			Dialect:    goose.DialectPostgres,
			Driver:     "pgx",
			Migrations: assets.PostgresMigrationDir,
			PrepareURI: preparePostgresURI,
		},
	}
}

// GetSupportedEngine names the engine this provider migrates.
func (p *PostgresMigrationProvider) GetSupportedEngine() string {
	return "postgres"
}

func (p *PostgresMigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	return p.migrator.RunMigrations(ctx, config)
}

func (p *PostgresMigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	return p.migrator.GetCurrentVersion(ctx, config)
}

// preparePostgresURI folds configured credential overrides into the URI,
// keeping whatever the URI itself carries as the fallback.
func preparePostgresURI(config storage.MigrationConfig) (string, error) {
	u, err := url.Parse(config.URI)
	if err != nil {
		return "", fmt.Errorf("parse postgres uri: %w", err)
	}

	username := config.Username
	if username == "" && u.User != nil {
		username = u.User.Username()
	}

	password := config.Password
	if password == "" && u.User != nil {
		password, _ = u.User.Password()
	}

	u.User = url.UserPassword(username, password)
	return u.String(), nil
}
