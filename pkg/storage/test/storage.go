// Package test contains a storage conformance suite that every datastore
// engine must pass.
package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/storage"
)

// RunAllTests runs the storage conformance suite against the supplied
// datastore.
func RunAllTests(t *testing.T, ds storage.StudyDatastore) {
	t.Run("TestDatastoreIsReady", func(t *testing.T) {
		status, err := ds.IsReady(context.Background())
		require.NoError(t, err)
		require.True(t, status.IsReady, status.Message)
	})

	t.Run("TestStudyCRUD", func(t *testing.T) { StudyCRUDTest(t, ds) })
	t.Run("TestStudyMatrixRoundTrip", func(t *testing.T) { StudyMatrixRoundTripTest(t, ds) })
	t.Run("TestListStudiesPagination", func(t *testing.T) { ListStudiesPaginationTest(t, ds) })
	t.Run("TestDeleteStudy", func(t *testing.T) { DeleteStudyTest(t, ds) })
}
