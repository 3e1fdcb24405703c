package mocks

import (
	"context"
	"time"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// slowDatastore is a proxy to the actual datastore except reads are delayed
// by readDelay. This allows simulating requests that run into their deadline.
type slowDatastore struct {
	readDelay time.Duration
	storage.StudyDatastore
}

// NewMockSlowDatastore returns a wrapper of a datastore that adds an artificial
// delay into every read.
func NewMockSlowDatastore(ds storage.StudyDatastore, readDelay time.Duration) storage.StudyDatastore {
	return &slowDatastore{
		readDelay:      readDelay,
		StudyDatastore: ds,
	}
}

func (m *slowDatastore) GetStudy(ctx context.Context, id string) (*storage.Study, error) {
	time.Sleep(m.readDelay)
	return m.StudyDatastore.GetStudy(ctx, id)
}

func (m *slowDatastore) GetStudyMatrix(ctx context.Context, id string) (*iped.StudyMatrix, error) {
	time.Sleep(m.readDelay)
	return m.StudyDatastore.GetStudyMatrix(ctx, id)
}

func (m *slowDatastore) ListStudies(ctx context.Context, options storage.PaginationOptions) ([]*storage.Study, string, error) {
	time.Sleep(m.readDelay)
	return m.StudyDatastore.ListStudies(ctx, options)
}
