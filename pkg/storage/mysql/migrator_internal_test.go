package mysql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestPrepareMySQLURI(t *testing.T) {
	t.Run("OverridesCredentials", func(t *testing.T) {
		uri, err := prepareMySQLURI(storage.MigrationConfig{
			URI:      "original:secret@tcp(localhost:3306)/taskgen",
			Username: "root",
		})
		require.NoError(t, err)
		require.Equal(t, "root:secret@tcp(localhost:3306)/taskgen", uri)
	})

	t.Run("InvalidURI", func(t *testing.T) {
		_, err := prepareMySQLURI(storage.MigrationConfig{URI: "://not-a-dsn"})
		require.Error(t, err)
	})
}
