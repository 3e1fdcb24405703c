package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mindsurve/taskgen/internal/mocks"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func TestListStudies(t *testing.T) {
	t.Run("succeeds_and_returns_an_opaque_token", func(t *testing.T) {
		studies := []*storage.Study{
			{ID: ulid.Make().String(), Name: "first"},
			{ID: ulid.Make().String(), Name: "second"},
		}
		nextFrom := studies[1].ID

		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			ListStudies(gomock.Any(), storage.NewPaginationOptions(0, "")).
			Times(1).
			Return(studies, nextFrom, nil)

		resp, err := NewListStudiesQuery(mockDatastore).Execute(context.Background(), &ListStudiesRequest{})
		require.NoError(t, err)
		require.Len(t, resp.Studies, 2)
		require.Equal(t, "first", resp.Studies[0].Name)

		require.NotEmpty(t, resp.ContinuationToken)
		require.NotEqual(t, nextFrom, resp.ContinuationToken)
		decoded, err := base64.URLEncoding.DecodeString(resp.ContinuationToken)
		require.NoError(t, err)
		require.Equal(t, nextFrom, string(decoded))
	})

	t.Run("token_round_trips_into_the_next_page", func(t *testing.T) {
		from := ulid.Make().String()
		token := base64.URLEncoding.EncodeToString([]byte(from))

		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			ListStudies(gomock.Any(), storage.NewPaginationOptions(10, from)).
			Times(1).
			Return(nil, "", nil)

		resp, err := NewListStudiesQuery(mockDatastore).Execute(context.Background(), &ListStudiesRequest{
			PageSize:          10,
			ContinuationToken: token,
		})
		require.NoError(t, err)
		require.Empty(t, resp.Studies)
		require.Empty(t, resp.ContinuationToken)
	})

	t.Run("fails_if_token_is_not_ours", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)

		resp, err := NewListStudiesQuery(mockDatastore).Execute(context.Background(), &ListStudiesRequest{
			ContinuationToken: "not a base64 token!",
		})
		require.Equal(t, err, serverErrors.InvalidContinuationToken)
		require.Nil(t, resp)
	})

	t.Run("fails_if_error_from_datastore", func(t *testing.T) {
		mockController := gomock.NewController(t)
		defer mockController.Finish()
		mockDatastore := mocks.NewMockStudyDatastore(mockController)
		mockDatastore.EXPECT().
			ListStudies(gomock.Any(), gomock.Any()).
			Times(1).
			Return(nil, "", errors.New("driver: bad connection"))

		resp, err := NewListStudiesQuery(mockDatastore).Execute(context.Background(), &ListStudiesRequest{})
		require.Error(t, err)
		require.Nil(t, resp)
	})
}
