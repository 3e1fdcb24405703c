package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindsurve/taskgen/internal/mocks"
	"github.com/mindsurve/taskgen/pkg/iped"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestGetStudyMatrix(t *testing.T) {
	studyID := ulid.Make().String()

	matrix, _, err := iped.MustNewGenerator().Generate(context.Background(), iped.Params{
		NumElements:        8,
		TasksPerRespondent: 24,
		NumRespondents:     2,
		MinActive:          2,
		MaxActive:          4,
	})
	require.NoError(t, err)

	t.Run("succeeds", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudyMatrix(gomock.Any(), studyID).Times(1).Return(matrix, nil)

		resp, err := NewGetStudyMatrixQuery(mockDatastore).Execute(context.Background(), &GetStudyMatrixRequest{
			StudyID: studyID,
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Equal(t, matrix, resp.Matrix)
	})

	t.Run("fails_if_study_not_found", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudyMatrix(gomock.Any(), studyID).Times(1).Return(nil, storage.ErrNotFound)

		resp, err := NewGetStudyMatrixQuery(mockDatastore).Execute(context.Background(), &GetStudyMatrixRequest{
			StudyID: studyID,
		})
		require.Equal(t, err, serverErrors.StudyIDNotFound)
		require.Nil(t, resp)
	})

	t.Run("fails_if_error_from_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudyMatrix(gomock.Any(), studyID).Times(1).Return(nil, errors.New("driver: bad connection"))

		resp, err := NewGetStudyMatrixQuery(mockDatastore).Execute(context.Background(), &GetStudyMatrixRequest{
			StudyID: studyID,
		})
		require.Error(t, err)
		require.Nil(t, resp)
	})
}
