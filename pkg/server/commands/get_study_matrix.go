package commands

import (
	"context"
	"errors"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// GetStudyMatrixRequest identifies the study whose matrix to fetch.
type GetStudyMatrixRequest struct {
	StudyID string `json:"study_id"`
}

// GetStudyMatrixResponse returns the stored task matrix.
type GetStudyMatrixResponse struct {
	Matrix *iped.StudyMatrix `json:"matrix"`
}

// GetStudyMatrixQuery resolves a study's task matrix by study ID.
type GetStudyMatrixQuery struct {
	studiesBackend storage.StudiesBackend
	logger         logger.Logger
}

// GetStudyMatrixQueryOption is a functional option for GetStudyMatrixQuery.
type GetStudyMatrixQueryOption func(*GetStudyMatrixQuery)

// WithGetStudyMatrixQueryLogger overrides the default noop logger.
func WithGetStudyMatrixQueryLogger(l logger.Logger) GetStudyMatrixQueryOption {
	return func(q *GetStudyMatrixQuery) {
		q.logger = l
	}
}

// NewGetStudyMatrixQuery returns a query backed by the given datastore.
func NewGetStudyMatrixQuery(studiesBackend storage.StudiesBackend, opts ...GetStudyMatrixQueryOption) *GetStudyMatrixQuery {
	query := &GetStudyMatrixQuery{
		studiesBackend: studiesBackend,
		logger:         logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// Execute fetches the matrix, mapping a miss to StudyIDNotFound.
func (q *GetStudyMatrixQuery) Execute(ctx context.Context, req *GetStudyMatrixRequest) (*GetStudyMatrixResponse, error) {
	matrix, err := q.studiesBackend.GetStudyMatrix(ctx, req.StudyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, serverErrors.StudyIDNotFound
		}
		return nil, serverErrors.HandleError("", err)
	}

	return &GetStudyMatrixResponse{Matrix: matrix}, nil
}
