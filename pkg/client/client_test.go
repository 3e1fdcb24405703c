package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/internal/httpapi"
	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server"
	"github.com/mindsurve/taskgen/pkg/server/commands"
	"github.com/mindsurve/taskgen/pkg/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ds := memory.New()
	t.Cleanup(ds.Close)

	srv := server.MustNewServerWithOpts(server.WithDatastore(ds))
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(httpapi.New(srv, logger.NewNoopLogger()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testParams() iped.Params {
	return iped.Params{
		NumElements:        8,
		TasksPerRespondent: 24,
		NumRespondents:     10,
		MinActive:          2,
		MaxActive:          4,
	}
}

func TestClientGenerateTasks(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	seed := int64(7)
	resp, err := c.GenerateTasks(context.Background(), &commands.GenerateTasksRequest{
		Params: testParams(),
		Seed:   &seed,
	})
	require.NoError(t, err)
	require.Equal(t, 10, resp.Matrix.NumRespondents())
	require.Equal(t, int64(7), resp.Stats.Seed)
}

func TestClientGenerateTasksInvalidParams(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	params := testParams()
	params.NumElements = 3

	_, err := c.GenerateTasks(context.Background(), &commands.GenerateTasksRequest{Params: params})
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	require.Equal(t, "invalid_configuration", reqErr.Code)
	require.Contains(t, reqErr.Error(), "invalid_configuration")
}

func TestClientPlanDesign(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	resp, err := c.PlanDesign(context.Background(), &commands.PlanDesignRequest{NumElements: 8})
	require.NoError(t, err)
	require.Equal(t, 14, resp.RecommendedTasks)
	require.Equal(t, 2, resp.MinActive)
	require.Equal(t, 4, resp.MaxActive)
}

func TestClientPlanDesignInfeasible(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	_, err := c.PlanDesign(context.Background(), &commands.PlanDesignRequest{
		NumElements: 6,
		MinActive:   1,
		MaxActive:   1,
	})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
	require.Equal(t, "infeasible_design", reqErr.Code)
}

func TestClientValidateMatrix(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	generated, err := c.GenerateTasks(context.Background(), &commands.GenerateTasksRequest{Params: testParams()})
	require.NoError(t, err)

	verdict, err := c.ValidateMatrix(context.Background(), &commands.ValidateMatrixRequest{
		Params: testParams(),
		Matrix: generated.Matrix,
	})
	require.NoError(t, err)
	require.True(t, verdict.Valid)
}

func TestClientStudyLifecycle(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	seen := map[string]bool{}
	for _, name := range []string{"wave one", "wave two", "wave three"} {
		created, err := c.CreateStudy(ctx, &commands.CreateStudyRequest{
			Name:   name,
			Params: testParams(),
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.Study.ID)
		seen[created.Study.ID] = false
	}

	var token string
	pages := 0
	for {
		page, err := c.ListStudies(ctx, &commands.ListStudiesRequest{
			PageSize:          2,
			ContinuationToken: token,
		})
		require.NoError(t, err)
		pages++
		for _, study := range page.Studies {
			require.Contains(t, seen, study.ID)
			require.False(t, seen[study.ID], "study %s listed twice", study.ID)
			seen[study.ID] = true
		}
		if page.ContinuationToken == "" {
			break
		}
		token = page.ContinuationToken
	}
	require.Equal(t, 2, pages)
	for id, listed := range seen {
		require.True(t, listed, "study %s never listed", id)
	}

	for id := range seen {
		fetched, err := c.GetStudy(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, fetched.Study.ID)

		matrix, err := c.GetStudyMatrix(ctx, id)
		require.NoError(t, err)
		require.Equal(t, 10, matrix.Matrix.NumRespondents())

		require.NoError(t, c.DeleteStudy(ctx, id))

		_, err = c.GetStudy(ctx, id)
		var reqErr *RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, http.StatusNotFound, reqErr.StatusCode)
		require.Equal(t, "study_not_found", reqErr.Code)
	}
}

func TestClientHealthy(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL)

	require.True(t, c.Healthy(context.Background()))
}

func TestClientHealthyFalseWhenDown(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL
	ts.Close()

	c := New(url, WithHTTPClient(&http.Client{}))
	require.False(t, c.Healthy(context.Background()))
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	ts := newTestServer(t)
	c := New(ts.URL + "/")

	require.True(t, c.Healthy(context.Background()))
}

func TestRequestErrorUnwrapsThroughWrapping(t *testing.T) {
	reqErr := &RequestError{
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "infeasible_balance",
		Message:    "tolerance 0.5% unreachable",
	}
	wrapped := errors.Join(errors.New("generate wave"), reqErr)

	var got *RequestError
	require.ErrorAs(t, wrapped, &got)
	require.Equal(t, "infeasible_balance (HTTP 422): tolerance 0.5% unreachable", got.Error())
}
