package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindsurve/taskgen/internal/mocks"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestDeleteStudy(t *testing.T) {
	studyID := ulid.Make().String()

	t.Run("succeeds", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().DeleteStudy(gomock.Any(), studyID).Times(1).Return(nil)

		resp, err := NewDeleteStudyCommand(mockDatastore).Execute(context.Background(), &DeleteStudyRequest{
			StudyID: studyID,
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
	})

	t.Run("fails_if_study_not_found", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().DeleteStudy(gomock.Any(), studyID).Times(1).Return(storage.ErrNotFound)

		resp, err := NewDeleteStudyCommand(mockDatastore).Execute(context.Background(), &DeleteStudyRequest{
			StudyID: studyID,
		})
		require.Equal(t, err, serverErrors.StudyIDNotFound)
		require.Nil(t, resp)
	})

	t.Run("fails_if_error_from_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().DeleteStudy(gomock.Any(), studyID).Times(1).Return(errors.New("driver: bad connection"))

		resp, err := NewDeleteStudyCommand(mockDatastore).Execute(context.Background(), &DeleteStudyRequest{
			StudyID: studyID,
		})
		require.Error(t, err)
		require.Nil(t, resp)
	})
}
