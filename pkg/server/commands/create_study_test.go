package commands

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindsurve/taskgen/internal/mocks"
	"github.com/mindsurve/taskgen/pkg/iped"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestCreateStudy(t *testing.T) {
	generator := iped.MustNewGenerator()

	params := iped.Params{
		NumElements:        8,
		TasksPerRespondent: 24,
		NumRespondents:     3,
		MinActive:          2,
		MaxActive:          4,
	}

	t.Run("succeeds", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			CreateStudy(gomock.Any(), gomock.Any(), gomock.Any()).
			Times(1).
			DoAndReturn(func(_ context.Context, study *storage.Study, matrix *iped.StudyMatrix) (*storage.Study, error) {
				require.Len(t, study.ID, 26)
				require.Equal(t, params.NumRespondents, matrix.NumRespondents())

				stored := *study
				stored.CreatedAt = time.Now().UTC()
				return &stored, nil
			})

		resp, err := NewCreateStudyCommand(mockDatastore, generator).Execute(context.Background(), &CreateStudyRequest{
			Name:   "shelf layout wave 2",
			Params: params,
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Equal(t, "shelf layout wave 2", resp.Study.Name)
		require.Equal(t, resp.Stats.Seed, resp.Study.Seed)
		require.Equal(t, resp.Stats.Attempts, resp.Study.Attempts)
		require.False(t, resp.Study.CreatedAt.IsZero())
	})

	t.Run("records_the_explicit_seed", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			CreateStudy(gomock.Any(), gomock.Any(), gomock.Any()).
			Times(1).
			DoAndReturn(func(_ context.Context, study *storage.Study, _ *iped.StudyMatrix) (*storage.Study, error) {
				return study, nil
			})

		seed := int64(1234)
		resp, err := NewCreateStudyCommand(mockDatastore, generator).Execute(context.Background(), &CreateStudyRequest{
			Params: params,
			Seed:   &seed,
		})
		require.NoError(t, err)
		require.Equal(t, seed, resp.Study.Seed)
	})

	t.Run("invalid_params_do_not_touch_the_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)

		bad := params
		bad.MinActive = 5
		bad.MaxActive = 3

		resp, err := NewCreateStudyCommand(mockDatastore, generator).Execute(context.Background(), &CreateStudyRequest{
			Params: bad,
		})
		require.Nil(t, resp)

		var apiErr *serverErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatusCode())
	})

	t.Run("fails_if_error_from_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			CreateStudy(gomock.Any(), gomock.Any(), gomock.Any()).
			Times(1).
			Return(nil, errors.New("driver: bad connection"))

		resp, err := NewCreateStudyCommand(mockDatastore, generator).Execute(context.Background(), &CreateStudyRequest{
			Params: params,
		})
		require.Nil(t, resp)

		var apiErr *serverErrors.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode())
		require.NotContains(t, apiErr.Error(), "bad connection")
	})
}
