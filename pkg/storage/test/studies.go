package test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/storage"
)

var testParams = iped.Params{
	NumElements:        6,
	TasksPerRespondent: 8,
	NumRespondents:     4,
	MinActive:          2,
	MaxActive:          4,
}

// createStudy generates a matrix for testParams and persists it under a
// fresh ULID.
func createStudy(t *testing.T, ds storage.StudyDatastore, name string, seed int64) (*storage.Study, *iped.StudyMatrix) {
	t.Helper()

	gen, err := iped.NewGenerator()
	require.NoError(t, err)
	defer gen.Close()

	matrix, stats, err := gen.Generate(context.Background(), testParams, iped.WithSeed(seed))
	require.NoError(t, err)

	study := &storage.Study{
		ID:           ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String(),
		Name:         name,
		Params:       testParams,
		Seed:         stats.Seed,
		Attempts:     stats.Attempts,
		MaxDeviation: stats.MaxDeviation,
	}

	created, err := ds.CreateStudy(context.Background(), study, matrix)
	require.NoError(t, err)
	require.Equal(t, study.ID, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	return created, matrix
}

func StudyCRUDTest(t *testing.T, ds storage.StudyDatastore) {
	ctx := context.Background()

	created, _ := createStudy(t, ds, "crud", 21)

	t.Run("get_returns_created_study", func(t *testing.T) {
		got, err := ds.GetStudy(ctx, created.ID)
		require.NoError(t, err)

		ignoreTimestamps := cmpopts.IgnoreFields(storage.Study{}, "CreatedAt")
		if diff := cmp.Diff(created, got, ignoreTimestamps, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("study mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, "crud", got.Name)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("creating_study_twice_fails", func(t *testing.T) {
		gen, err := iped.NewGenerator()
		require.NoError(t, err)
		defer gen.Close()

		matrix, _, err := gen.Generate(ctx, testParams, iped.WithSeed(22))
		require.NoError(t, err)

		_, err = ds.CreateStudy(ctx, &storage.Study{
			ID:     created.ID,
			Name:   "duplicate",
			Params: testParams,
			Seed:   22,
		}, matrix)
		require.ErrorIs(t, err, storage.ErrCollision)
	})

	t.Run("get_missing_study_fails", func(t *testing.T) {
		missing := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()

		_, err := ds.GetStudy(ctx, missing)
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = ds.GetStudyMatrix(ctx, missing)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func StudyMatrixRoundTripTest(t *testing.T, ds storage.StudyDatastore) {
	ctx := context.Background()

	created, matrix := createStudy(t, ds, "roundtrip", 31)

	got, err := ds.GetStudyMatrix(ctx, created.ID)
	require.NoError(t, err)

	expected, err := json.Marshal(matrix)
	require.NoError(t, err)
	actual, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, string(expected), string(actual))

	require.NoError(t, iped.ValidateMatrix(got, created.Params, iped.DefaultTolerance))
}

func ListStudiesPaginationTest(t *testing.T, ds storage.StudyDatastore) {
	ctx := context.Background()

	const numStudies = 5

	ids := make([]string, 0, numStudies)
	for i := 0; i < numStudies; i++ {
		created, _ := createStudy(t, ds, fmt.Sprintf("page-%d", i), int64(100+i))
		ids = append(ids, created.ID)
	}

	t.Run("pages_cover_all_studies_in_order", func(t *testing.T) {
		seen := make([]string, 0, numStudies)

		token := ""
		for {
			page, ct, err := ds.ListStudies(ctx, storage.NewPaginationOptions(2, token))
			require.NoError(t, err)
			require.LessOrEqual(t, len(page), 2)

			for _, study := range page {
				seen = append(seen, study.ID)
			}
			if ct == "" {
				break
			}
			token = ct
		}

		require.IsNonDecreasing(t, seen)
		require.Subset(t, seen, ids)
	})

	t.Run("single_page_has_no_continuation_token", func(t *testing.T) {
		page, ct, err := ds.ListStudies(ctx, storage.NewPaginationOptions(1000, ""))
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(page), numStudies)
		require.Empty(t, ct)
	})

	t.Run("invalid_continuation_token_fails", func(t *testing.T) {
		_, _, err := ds.ListStudies(ctx, storage.NewPaginationOptions(10, "not-a-ulid"))
		require.ErrorIs(t, err, storage.ErrInvalidContinuationToken)
	})
}

func DeleteStudyTest(t *testing.T, ds storage.StudyDatastore) {
	ctx := context.Background()

	created, _ := createStudy(t, ds, "doomed", 41)

	require.NoError(t, ds.DeleteStudy(ctx, created.ID))

	_, err := ds.GetStudy(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = ds.GetStudyMatrix(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("deleted_study_is_not_listed", func(t *testing.T) {
		page, _, err := ds.ListStudies(ctx, storage.NewPaginationOptions(1000, ""))
		require.NoError(t, err)
		for _, study := range page {
			require.NotEqual(t, created.ID, study.ID)
		}
	})

	t.Run("deleting_missing_study_fails", func(t *testing.T) {
		require.ErrorIs(t, ds.DeleteStudy(ctx, created.ID), storage.ErrNotFound)
	})
}
