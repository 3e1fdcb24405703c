package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server/commands"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/testutils"
)

var benchParams = iped.Params{
	NumElements:        12,
	TasksPerRespondent: 30,
	NumRespondents:     50,
	MinActive:          2,
	MaxActive:          4,
}

func BenchmarkGenerateTasks(b *testing.B, ds storage.StudyDatastore) {
	ctx := context.Background()

	generator, err := iped.NewGenerator(iped.WithLogger(logger.NewNoopLogger()))
	require.NoError(b, err)
	b.Cleanup(generator.Close)

	cmd := commands.NewGenerateTasksCommand(generator)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := cmd.Execute(ctx, &commands.GenerateTasksRequest{Params: benchParams})
		require.NoError(b, err)
	}
}

func BenchmarkCreateStudy(b *testing.B, ds storage.StudyDatastore) {
	ctx := context.Background()

	generator, err := iped.NewGenerator(iped.WithLogger(logger.NewNoopLogger()))
	require.NoError(b, err)
	b.Cleanup(generator.Close)

	cmd := commands.NewCreateStudyCommand(ds, generator)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := cmd.Execute(ctx, &commands.CreateStudyRequest{
			Name:   testutils.CreateRandomString(10),
			Params: benchParams,
		})
		require.NoError(b, err)
	}
}
