// Package storage contains test fixtures that bootstrap throwaway
// datastores for integration tests.
package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/memory"
	"github.com/mindsurve/taskgen/pkg/storage/mysql"
	"github.com/mindsurve/taskgen/pkg/storage/postgres"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
	"github.com/mindsurve/taskgen/pkg/storage/sqlite"
)

// DatastoreTestContainer is a throwaway datastore a test can run against.
// SQL engines come up inside a docker container, memory is a no-op.
type DatastoreTestContainer interface {

	// GetConnectionURI returns the URI a client uses to reach the datastore,
	// with or without credentials baked in.
	GetConnectionURI(includeCredentials bool) string

	// GetDatabaseSchemaVersion returns the schema revision the datastore was
	// migrated to on startup.
	GetDatabaseSchemaVersion() int64

	GetUsername() string
	GetPassword() string
}

type memoryTestContainer struct{}

func (m memoryTestContainer) GetConnectionURI(includeCredentials bool) string {
	return ""
}

func (m memoryTestContainer) GetUsername() string {
	return ""
}

func (m memoryTestContainer) GetPassword() string {
	return ""
}

func (m memoryTestContainer) GetDatabaseSchemaVersion() int64 {
	return 2
}

// RunDatastoreTestContainer boots a datastore for the given engine and
// migrates it to the latest schema. Everything it starts is torn down when
// the test finishes.
func RunDatastoreTestContainer(t testing.TB, engine string) DatastoreTestContainer {
	switch engine {
	case "mysql":
		return NewMySQLTestContainer().RunMySQLTestContainer(t)
	case "postgres":
		return NewPostgresTestContainer().RunPostgresTestContainer(t)
	case "sqlite":
		return NewSqliteTestContainer().RunSqliteTestDatabase(t)
	case "memory":
		return memoryTestContainer{}
	default:
		t.Fatalf("'%s' engine is not supported by RunDatastoreTestContainer", engine)
		return nil
	}
}

// MustBootstrapDatastore runs a datastore for the given engine, applies
// all migrations, and returns a connected [storage.StudyDatastore].
func MustBootstrapDatastore(t testing.TB, engine string) storage.StudyDatastore {
	testDatastore := RunDatastoreTestContainer(t, engine)

	uri := testDatastore.GetConnectionURI(true)

	var ds storage.StudyDatastore
	var err error

	switch engine {
	case "memory":
		ds = memory.New()
	case "postgres":
		ds, err = postgres.New(uri, sqlcommon.NewConfig())
	case "mysql":
		ds, err = mysql.New(uri, sqlcommon.NewConfig())
	case "sqlite":
		ds, err = sqlite.New(uri, sqlcommon.NewConfig())
	default:
		t.Fatalf("'%s' is not a supported datastore engine", engine)
	}
	require.NoError(t, err)

	t.Cleanup(ds.Close)

	return ds
}
