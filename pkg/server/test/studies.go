package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server/commands"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/testutils"
)

// testStudyParams is small enough that a study generates in well under a
// second on any engine.
var testStudyParams = iped.Params{
	NumElements:        8,
	TasksPerRespondent: 24,
	NumRespondents:     5,
	MinActive:          2,
	MaxActive:          4,
}

func newTestGenerator(t *testing.T) *iped.Generator {
	t.Helper()

	generator, err := iped.NewGenerator(iped.WithLogger(logger.NewNoopLogger()))
	require.NoError(t, err)
	t.Cleanup(generator.Close)

	return generator
}

func createTestStudy(t *testing.T, datastore storage.StudyDatastore, name string) *commands.CreateStudyResponse {
	t.Helper()

	cmd := commands.NewCreateStudyCommand(datastore, newTestGenerator(t),
		commands.WithCreateStudyCmdLogger(logger.NewNoopLogger()),
	)

	resp, err := cmd.Execute(context.Background(), &commands.CreateStudyRequest{
		Name:   name,
		Params: testStudyParams,
	})
	require.NoError(t, err)

	return resp
}

func TestCreateStudy(t *testing.T, datastore storage.StudyDatastore) {
	name := testutils.CreateRandomString(10)
	resp := createTestStudy(t, datastore, name)

	require.Len(t, resp.Study.ID, 26)
	require.Equal(t, name, resp.Study.Name)
	require.Equal(t, testStudyParams, resp.Study.Params)
	require.False(t, resp.Study.CreatedAt.IsZero())
	require.GreaterOrEqual(t, resp.Stats.Attempts, 1)
	require.Equal(t, resp.Stats.Seed, resp.Study.Seed)
}

func TestGetStudy(t *testing.T, datastore storage.StudyDatastore) {
	ctx := context.Background()
	logger := logger.NewNoopLogger()

	created := createTestStudy(t, datastore, testutils.CreateRandomString(10))

	query := commands.NewGetStudyQuery(datastore,
		commands.WithGetStudyQueryLogger(logger),
	)

	resp, err := query.Execute(ctx, &commands.GetStudyRequest{StudyID: created.Study.ID})
	require.NoError(t, err)
	require.Equal(t, created.Study.ID, resp.Study.ID)
	require.Equal(t, created.Study.Name, resp.Study.Name)
	require.Equal(t, created.Study.Seed, resp.Study.Seed)

	_, err = query.Execute(ctx, &commands.GetStudyRequest{StudyID: "01JBXXXXXXXXXXXXXXXXXXXXXX"})
	require.Equal(t, err, serverErrors.StudyIDNotFound)
}

func TestGetStudyMatrix(t *testing.T, datastore storage.StudyDatastore) {
	ctx := context.Background()
	logger := logger.NewNoopLogger()

	created := createTestStudy(t, datastore, testutils.CreateRandomString(10))

	query := commands.NewGetStudyMatrixQuery(datastore,
		commands.WithGetStudyMatrixQueryLogger(logger),
	)

	resp, err := query.Execute(ctx, &commands.GetStudyMatrixRequest{StudyID: created.Study.ID})
	require.NoError(t, err)
	require.Equal(t, testStudyParams.NumRespondents, resp.Matrix.NumRespondents())

	// The stored matrix must be exactly the one the recorded seed produces.
	regenerated, _, err := newTestGenerator(t).Generate(ctx, testStudyParams, iped.WithSeed(created.Study.Seed))
	require.NoError(t, err)
	require.Equal(t, regenerated, resp.Matrix)

	_, err = query.Execute(ctx, &commands.GetStudyMatrixRequest{StudyID: "01JBXXXXXXXXXXXXXXXXXXXXXX"})
	require.Equal(t, err, serverErrors.StudyIDNotFound)
}

func TestListStudies(t *testing.T, datastore storage.StudyDatastore) {
	ctx := context.Background()
	logger := logger.NewNoopLogger()

	first := createTestStudy(t, datastore, testutils.CreateRandomString(10))
	second := createTestStudy(t, datastore, testutils.CreateRandomString(10))

	query := commands.NewListStudiesQuery(datastore,
		commands.WithListStudiesQueryLogger(logger),
	)

	seen := make(map[string]bool)

	var token string
	for {
		resp, err := query.Execute(ctx, &commands.ListStudiesRequest{
			PageSize:          1,
			ContinuationToken: token,
		})
		require.NoError(t, err)
		require.LessOrEqual(t, len(resp.Studies), 1)

		for _, study := range resp.Studies {
			require.False(t, seen[study.ID], "study %s returned twice", study.ID)
			seen[study.ID] = true
		}

		token = resp.ContinuationToken
		if token == "" {
			break
		}
	}

	require.True(t, seen[first.Study.ID])
	require.True(t, seen[second.Study.ID])
}

func TestDeleteStudy(t *testing.T, datastore storage.StudyDatastore) {
	ctx := context.Background()
	logger := logger.NewNoopLogger()

	created := createTestStudy(t, datastore, testutils.CreateRandomString(10))

	cmd := commands.NewDeleteStudyCommand(datastore,
		commands.WithDeleteStudyCmdLogger(logger),
	)

	_, err := cmd.Execute(ctx, &commands.DeleteStudyRequest{StudyID: created.Study.ID})
	require.NoError(t, err)

	getQuery := commands.NewGetStudyQuery(datastore,
		commands.WithGetStudyQueryLogger(logger),
	)
	_, err = getQuery.Execute(ctx, &commands.GetStudyRequest{StudyID: created.Study.ID})
	require.Equal(t, err, serverErrors.StudyIDNotFound)

	matrixQuery := commands.NewGetStudyMatrixQuery(datastore,
		commands.WithGetStudyMatrixQueryLogger(logger),
	)
	_, err = matrixQuery.Execute(ctx, &commands.GetStudyMatrixRequest{StudyID: created.Study.ID})
	require.Equal(t, err, serverErrors.StudyIDNotFound)

	_, err = cmd.Execute(ctx, &commands.DeleteStudyRequest{StudyID: created.Study.ID})
	require.Equal(t, err, serverErrors.StudyIDNotFound)
}
