package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/test"
)

func TestMemoryDatastore(t *testing.T) {
	t.Cleanup(func() {
		goleak.VerifyNone(t)
	})

	ds := New()
	defer ds.Close()

	test.RunAllTests(t, ds)
}

func TestMemoryDatastoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ds := New()
	defer ds.Close()

	params := iped.Params{
		NumElements:        4,
		TasksPerRespondent: 3,
		NumRespondents:     2,
		MinActive:          1,
		MaxActive:          2,
	}

	gen := iped.MustNewGenerator()
	defer gen.Close()
	matrix, _, err := gen.Generate(ctx, params, iped.WithSeed(5))
	require.NoError(t, err)

	id := ulid.Make().String()
	created, err := ds.CreateStudy(ctx, &storage.Study{ID: id, Name: "original", Params: params, Seed: 5}, matrix)
	require.NoError(t, err)

	// Mutating the returned study must not affect the stored one.
	created.Name = "mutated"

	got, err := ds.GetStudy(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "original", got.Name)
}

func TestMemoryDatastoreConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	ds := New()
	defer ds.Close()

	params := iped.Params{
		NumElements:        4,
		TasksPerRespondent: 2,
		NumRespondents:     1,
		MinActive:          1,
		MaxActive:          2,
	}

	gen := iped.MustNewGenerator()
	defer gen.Close()
	matrix, _, err := gen.Generate(ctx, params, iped.WithSeed(9))
	require.NoError(t, err)

	const workers = 8

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ulid.Make().String()
			_, err := ds.CreateStudy(ctx, &storage.Study{ID: id, Params: params, Seed: 9}, matrix)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	studies, ct, err := ds.ListStudies(ctx, storage.NewPaginationOptions(workers*2, ""))
	require.NoError(t, err)
	require.Empty(t, ct)
	require.Len(t, studies, workers)
}
