package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"

	"github.com/mindsurve/taskgen/assets"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// GooseMigrator walks the embedded schema migrations for one SQL engine.
// Engine packages supply the goose dialect, the driver to connect with, the
// migration directory, and a DSN preparer that folds credential overrides
// into the URI.
type GooseMigrator struct {
	Engine     string
	Dialect    goose.Dialect
	Driver     string
	Migrations string
	PrepareURI func(storage.MigrationConfig) (string, error)
}

// RunMigrations connects with retry and brings the schema to the configured
// target version, or to the latest version when the target is zero.
func (m GooseMigrator) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	db, err := m.open(config)
	if err != nil {
		return err
	}
	defer db.Close()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = config.Timeout
	if err := backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, policy); err != nil {
		return fmt.Errorf("initialize %s connection: %w", m.Engine, err)
	}

	provider, err := m.newProvider(db, config)
	if err != nil {
		return err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read %s schema version: %w", m.Engine, err)
	}

	if config.TargetVersion == 0 {
		log.Printf("%s schema at version %d, running all migrations", m.Engine, current)
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("run %s migrations: %w", m.Engine, err)
		}
		log.Printf("%s migration done", m.Engine)
		return nil
	}

	target := int64(config.TargetVersion)
	switch {
	case target < current:
		log.Printf("%s schema at version %d, migrating down to %d", m.Engine, current, target)
		if _, err := provider.DownTo(ctx, target); err != nil {
			return fmt.Errorf("run %s migrations down to %d: %w", m.Engine, target, err)
		}
	case target > current:
		log.Printf("%s schema at version %d, migrating up to %d", m.Engine, current, target)
		if _, err := provider.UpTo(ctx, target); err != nil {
			return fmt.Errorf("run %s migrations up to %d: %w", m.Engine, target, err)
		}
	default:
		log.Printf("%s schema already at version %d", m.Engine, target)
		return nil
	}

	log.Printf("%s migration done", m.Engine)
	return nil
}

// GetCurrentVersion reports the schema version currently applied.
func (m GooseMigrator) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	db, err := m.open(config)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	provider, err := m.newProvider(db, config)
	if err != nil {
		return 0, err
	}

	return provider.GetDBVersion(ctx)
}

func (m GooseMigrator) open(config storage.MigrationConfig) (*sql.DB, error) {
	uri, err := m.PrepareURI(config)
	if err != nil {
		return nil, err
	}

	db, err := goose.OpenDBWithDriver(m.Driver, uri)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", m.Engine, err)
	}
	return db, nil
}

func (m GooseMigrator) newProvider(db *sql.DB, config storage.MigrationConfig) (*goose.Provider, error) {
	fsys, err := fs.Sub(assets.EmbedMigrations, m.Migrations)
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", m.Engine, err)
	}

	provider, err := goose.NewProvider(m.Dialect, db, fsys, goose.WithVerbose(config.Verbose))
	if err != nil {
		return nil, fmt.Errorf("create %s migration provider: %w", m.Engine, err)
	}
	return provider, nil
}
