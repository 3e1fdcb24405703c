package storage

import (
	"context"
	"sort"
	"time"

	"golang.org/x/exp/maps"
)

// MigrationProvider runs schema migrations for one datastore engine.
// Implementations are registered per engine so commands can resolve the
// right runner from configuration alone.
type MigrationProvider interface {
	// RunMigrations brings the schema to the configured target version,
	// or to the latest version when none is set.
	RunMigrations(ctx context.Context, config MigrationConfig) error

	// GetCurrentVersion reports the schema version currently applied.
	GetCurrentVersion(ctx context.Context, config MigrationConfig) (int64, error)

	// GetSupportedEngine names the engine this provider serves.
	GetSupportedEngine() string
}

// MigrationConfig carries everything a provider needs to connect and
// migrate. A TargetVersion of zero means latest.
type MigrationConfig struct {
	Engine        string
	URI           string
	TargetVersion uint
	Timeout       time.Duration
	Verbose       bool
	Username      string
	Password      string
}

// MigratorRegistry resolves migration providers by engine name.
type MigratorRegistry struct {
	providers map[string]MigrationProvider
}

func NewMigratorRegistry() *MigratorRegistry {
	return &MigratorRegistry{providers: make(map[string]MigrationProvider)}
}

// RegisterProvider makes a provider available under the given engine name,
// replacing any previous registration for it.
func (r *MigratorRegistry) RegisterProvider(engine string, provider MigrationProvider) {
	r.providers[engine] = provider
}

// GetProvider returns the provider registered for the engine, if any.
func (r *MigratorRegistry) GetProvider(engine string) (MigrationProvider, bool) {
	provider, ok := r.providers[engine]
	return provider, ok
}

// GetSupportedEngines lists the registered engine names in sorted order.
func (r *MigratorRegistry) GetSupportedEngines() []string {
	engines := maps.Keys(r.providers)
	sort.Strings(engines)
	return engines
}
