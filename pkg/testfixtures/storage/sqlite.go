package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/assets"
)

type sqliteTestContainer struct {
	path    string
	version int64
}

// NewSqliteTestContainer returns an unstarted sqlite fixture. No container is
// involved, the database is a file under the test temp dir.
func NewSqliteTestContainer() *sqliteTestContainer {
	return &sqliteTestContainer{}
}

func (m *sqliteTestContainer) GetDatabaseSchemaVersion() int64 {
	return m.version
}

// RunSqliteTestDatabase creates a sqlite database file under a test temp
// dir, migrates it to the latest schema, and returns a bootstrapped
// implementation of the DatastoreTestContainer interface wired up for the
// sqlite datastore engine.
func (m *sqliteTestContainer) RunSqliteTestDatabase(t testing.TB) DatastoreTestContainer {
	m.path = filepath.Join(t.TempDir(), "database.db")

	db, err := sql.Open("sqlite", m.GetConnectionURI(true))
	require.NoError(t, err)

	fsys, err := fs.Sub(assets.EmbedMigrations, assets.SqliteMigrationDir)
	require.NoError(t, err)

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	require.NoError(t, err)

	_, err = provider.Up(context.Background())
	require.NoError(t, err)

	version, err := provider.GetDBVersion(context.Background())
	require.NoError(t, err)
	m.version = version

	require.NoError(t, db.Close())

	return m
}

// GetConnectionURI returns the sqlite connection uri for the running sqlite test database.
func (m *sqliteTestContainer) GetConnectionURI(includeCredentials bool) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(100)", m.path)
}

func (m *sqliteTestContainer) GetUsername() string {
	return ""
}

func (m *sqliteTestContainer) GetPassword() string {
	return ""
}
