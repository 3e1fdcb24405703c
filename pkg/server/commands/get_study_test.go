package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindsurve/taskgen/internal/mocks"
	"github.com/mindsurve/taskgen/pkg/iped"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestGetStudy(t *testing.T) {
	study := &storage.Study{
		ID:   ulid.Make().String(),
		Name: "pack redesign",
		Params: iped.Params{
			NumElements:        8,
			TasksPerRespondent: 24,
			NumRespondents:     50,
			MinActive:          2,
			MaxActive:          4,
		},
		Seed:      991,
		Attempts:  1,
		CreatedAt: time.Now().UTC(),
	}

	t.Run("succeeds", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudy(gomock.Any(), study.ID).Times(1).Return(study, nil)

		resp, err := NewGetStudyQuery(mockDatastore).Execute(context.Background(), &GetStudyRequest{
			StudyID: study.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Equal(t, study.ID, resp.Study.ID)
		require.Equal(t, study.Name, resp.Study.Name)
		require.Equal(t, study.Seed, resp.Study.Seed)
		require.Equal(t, study.CreatedAt, resp.Study.CreatedAt)
	})

	t.Run("fails_if_study_not_found", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudy(gomock.Any(), study.ID).Times(1).Return(nil, storage.ErrNotFound)

		resp, err := NewGetStudyQuery(mockDatastore).Execute(context.Background(), &GetStudyRequest{
			StudyID: study.ID,
		})
		require.Equal(t, err, serverErrors.StudyIDNotFound)
		require.Nil(t, resp)
	})

	t.Run("fails_if_error_from_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().GetStudy(gomock.Any(), study.ID).Times(1).Return(nil, errors.New("driver: bad connection"))

		resp, err := NewGetStudyQuery(mockDatastore).Execute(context.Background(), &GetStudyRequest{
			StudyID: study.ID,
		})
		require.Error(t, err)
		require.Nil(t, resp)
	})
}
