// Package test contains the datastore-parameterized functional suite.
// Every datastore engine is expected to pass it unchanged.
package test

import (
	"testing"

	benchmarks "github.com/mindsurve/taskgen/pkg/server/test/benchmarks"
	"github.com/mindsurve/taskgen/pkg/storage"
)

func RunAllTests(t *testing.T, ds storage.StudyDatastore) {
	RunStudyTests(t, ds)
}

func RunStudyTests(t *testing.T, ds storage.StudyDatastore) {
	t.Run("TestCreateStudy", func(t *testing.T) { TestCreateStudy(t, ds) })
	t.Run("TestGetStudy", func(t *testing.T) { TestGetStudy(t, ds) })
	t.Run("TestGetStudyMatrix", func(t *testing.T) { TestGetStudyMatrix(t, ds) })
	t.Run("TestListStudies", func(t *testing.T) { TestListStudies(t, ds) })
	t.Run("TestDeleteStudy", func(t *testing.T) { TestDeleteStudy(t, ds) })
}

func RunAllBenchmarks(b *testing.B, ds storage.StudyDatastore) {
	b.Run("BenchmarkGenerateTasks", func(b *testing.B) { benchmarks.BenchmarkGenerateTasks(b, ds) })
	b.Run("BenchmarkCreateStudy", func(b *testing.B) { benchmarks.BenchmarkCreateStudy(b, ds) })
}
