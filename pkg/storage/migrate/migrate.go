// Package migrate wires the built-in migration providers together and
// runs schema migrations for the configured datastore engine.
package migrate

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/mysql"
	"github.com/mindsurve/taskgen/pkg/storage/postgres"
	"github.com/mindsurve/taskgen/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig = storage.MigrationConfig

var defaultRegistry = sync.OnceValue(func() *storage.MigratorRegistry {
	registry := storage.NewMigratorRegistry()
	registry.RegisterProvider("postgres", postgres.NewPostgresMigrationProvider())
	registry.RegisterProvider("mysql", mysql.NewMySQLMigrationProvider())
	registry.RegisterProvider("sqlite", sqlite.NewSQLiteMigrationProvider())
	return registry
})

// GetDefaultRegistry returns the registry holding the built-in providers.
func GetDefaultRegistry() *storage.MigratorRegistry {
	return defaultRegistry()
}

// RegisterMigrationProvider adds a custom provider to the default registry
// under the given engine name.
func RegisterMigrationProvider(engine string, provider storage.MigrationProvider) {
	defaultRegistry().RegisterProvider(engine, provider)
}

// RunMigrationsWithProvider migrates through the given provider directly,
// bypassing engine resolution.
func RunMigrationsWithProvider(provider storage.MigrationProvider, cfg storage.MigrationConfig) error {
	return provider.RunMigrations(context.Background(), cfg)
}

// RunMigrationsWithRegistry resolves cfg.Engine against the given registry
// and migrates through the provider found there.
func RunMigrationsWithRegistry(registry *storage.MigratorRegistry, cfg storage.MigrationConfig) error {
	if cfg.Engine == "memory" {
		log.Println("the memory datastore has no schema to migrate")
		return nil
	}

	provider, ok := registry.GetProvider(cfg.Engine)
	if !ok {
		return fmt.Errorf("engine %q has no registered migration provider", cfg.Engine)
	}

	return provider.RunMigrations(context.Background(), cfg)
}

// RunMigrations runs the migrations for the given config using the
// default registry. Applications embedding taskgen as a library can
// register custom providers with [RegisterMigrationProvider] before
// calling this, or use [RunMigrationsWithProvider] for full control.
func RunMigrations(cfg storage.MigrationConfig) error {
	return RunMigrationsWithRegistry(GetDefaultRegistry(), cfg)
}
