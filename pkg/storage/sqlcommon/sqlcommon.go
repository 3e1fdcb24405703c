// Package sqlcommon contains utility functions shared among all SQL
// datastore engines.
package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/mindsurve/taskgen/internal/build"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// Config defines the configuration parameters for setting up and managing
// a SQL connection.
type Config struct {
	Username string
	Password string
	Logger   logger.Logger

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type used for configuring a [Config]
// object.
type DatastoreOption func(*Config)

// WithUsername returns a [DatastoreOption] that sets the username in the
// [Config].
func WithUsername(username string) DatastoreOption {
	return func(config *Config) {
		config.Username = username
	}
}

// WithPassword returns a [DatastoreOption] that sets the password in the
// [Config].
func WithPassword(password string) DatastoreOption {
	return func(config *Config) {
		config.Password = password
	}
}

// WithLogger returns a [DatastoreOption] that sets the logger in the
// [Config].
func WithLogger(l logger.Logger) DatastoreOption {
	return func(config *Config) {
		config.Logger = l
	}
}

// WithMaxOpenConns returns a [DatastoreOption] that sets the maximum
// number of open connections in the [Config].
func WithMaxOpenConns(c int) DatastoreOption {
	return func(config *Config) {
		config.MaxOpenConns = c
	}
}

// WithMaxIdleConns returns a [DatastoreOption] that sets the maximum
// number of idle connections in the [Config].
func WithMaxIdleConns(c int) DatastoreOption {
	return func(config *Config) {
		config.MaxIdleConns = c
	}
}

// WithConnMaxIdleTime returns a [DatastoreOption] that sets the maximum
// idle time for a connection in the [Config].
func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(config *Config) {
		config.ConnMaxIdleTime = d
	}
}

// WithConnMaxLifetime returns a [DatastoreOption] that sets the maximum
// lifetime for a connection in the [Config].
func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(config *Config) {
		config.ConnMaxLifetime = d
	}
}

// WithMetrics returns a [DatastoreOption] that enables the export of
// connection pool metrics.
func WithMetrics() DatastoreOption {
	return func(config *Config) {
		config.ExportMetrics = true
	}
}

// NewConfig creates a new [Config] with the given options applied.
func NewConfig(opts ...DatastoreOption) *Config {
	config := &Config{
		Logger: logger.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// IsReady reports whether the datastore is ready to accept traffic. Unless
// skipVersionCheck is set, it also verifies that the schema revision is
// recent enough for this build.
func IsReady(ctx context.Context, skipVersionCheck bool, db *sql.DB) (storage.ReadinessStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// Ping before the version query, a connection failure should read as one.
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return storage.ReadinessStatus{}, pingErr
	}

	if skipVersionCheck {
		return storage.ReadinessStatus{IsReady: true}, nil
	}

	revision, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	if revision < build.MinimumSupportedDatastoreSchemaRevision {
		return storage.ReadinessStatus{
			Message: fmt.Sprintf(
				"datastore requires migrations: at revision '%d', but requires '%d'. Run 'taskgen migrate'.",
				revision, build.MinimumSupportedDatastoreSchemaRevision,
			),
			IsReady: false,
		}, nil
	}

	return storage.ReadinessStatus{IsReady: true}, nil
}
