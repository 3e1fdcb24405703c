// Package storage contains storage interfaces and implementations for
// persisting generated study designs.
package storage

import (
	"context"
	"time"

	"github.com/mindsurve/taskgen/pkg/iped"
)

//go:generate mockgen -source storage.go -destination ../../internal/mocks/mock_storage.go -package mocks StudyDatastore

const (
	// DefaultPageSize is the page size used when listing studies if the
	// caller does not provide one.
	DefaultPageSize = 50
)

// PaginationOptions should not be instantiated directly. Use
// [NewPaginationOptions] instead.
type PaginationOptions struct {
	PageSize int
	From     string
}

// NewPaginationOptions builds the options for a list call. Page sizes that
// are zero or negative fall back to [DefaultPageSize].
func NewPaginationOptions(size int32, token string) PaginationOptions {
	opts := PaginationOptions{PageSize: DefaultPageSize, From: token}
	if size > 0 {
		opts.PageSize = int(size)
	}
	return opts
}

// Study is the stored record for one generated study design. The task
// matrix itself is stored separately and retrieved with
// [StudiesBackend.GetStudyMatrix].
type Study struct {
	// ID is a ULID assigned when the study is created. IDs sort
	// lexicographically in creation order.
	ID string

	// Name is a human-friendly label. It does not need to be unique.
	Name string

	// Params are the generation parameters the matrix was produced from.
	Params iped.Params

	// Seed is the master seed the matrix was generated with. Together
	// with Params it is sufficient to regenerate the matrix.
	Seed int64

	// Attempts records how many generation attempts were needed.
	Attempts int

	// MaxDeviation is the exposure deviation of the stored matrix.
	MaxDeviation float64

	CreatedAt time.Time
}

// StudiesBackend provides a read/write interface for studies and their
// task matrices.
type StudiesBackend interface {
	// CreateStudy persists a study together with its task matrix. The
	// returned study reflects server-assigned fields such as CreatedAt.
	// If a study with the same ID already exists, ErrCollision is
	// returned.
	CreateStudy(ctx context.Context, study *Study, matrix *iped.StudyMatrix) (*Study, error)

	// GetStudy returns the study with the given ID, or ErrNotFound.
	GetStudy(ctx context.Context, id string) (*Study, error)

	// GetStudyMatrix returns the task matrix of the study with the given
	// ID, or ErrNotFound.
	GetStudyMatrix(ctx context.Context, id string) (*iped.StudyMatrix, error)

	// ListStudies returns a page of studies ordered by ID from oldest to
	// newest, along with a continuation token for the next page. The
	// token is empty when there are no further pages.
	ListStudies(ctx context.Context, options PaginationOptions) ([]*Study, string, error)

	// DeleteStudy removes the study with the given ID, or returns
	// ErrNotFound. Deletes are not reversible.
	DeleteStudy(ctx context.Context, id string) error
}

// StudyDatastore is the complete interface a datastore engine must
// implement to back the service.
type StudyDatastore interface {
	StudiesBackend

	// IsReady probes the datastore and reports whether it can serve
	// requests. SQL engines also check that the schema is at the revision
	// this build expects.
	IsReady(ctx context.Context) (ReadinessStatus, error)

	// Close releases held resources such as connection pools.
	Close()
}

// ReadinessStatus is the outcome of a [StudyDatastore.IsReady] probe.
type ReadinessStatus struct {
	// Message explains what is missing when the datastore is not ready,
	// for example an outstanding schema migration.
	Message string

	IsReady bool
}
