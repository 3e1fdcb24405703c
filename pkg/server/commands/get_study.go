package commands

import (
	"context"
	"errors"

	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// GetStudyRequest identifies the study to fetch.
type GetStudyRequest struct {
	StudyID string `json:"study_id"`
}

// GetStudyResponse returns the stored study record.
type GetStudyResponse struct {
	Study *Study `json:"study"`
}

// GetStudyQuery resolves a study by ID.
type GetStudyQuery struct {
	studiesBackend storage.StudiesBackend
	logger         logger.Logger
}

// GetStudyQueryOption is a functional option for GetStudyQuery.
type GetStudyQueryOption func(*GetStudyQuery)

// WithGetStudyQueryLogger overrides the default noop logger.
func WithGetStudyQueryLogger(l logger.Logger) GetStudyQueryOption {
	return func(q *GetStudyQuery) {
		q.logger = l
	}
}

// NewGetStudyQuery returns a query backed by the given datastore.
func NewGetStudyQuery(studiesBackend storage.StudiesBackend, opts ...GetStudyQueryOption) *GetStudyQuery {
	query := &GetStudyQuery{
		studiesBackend: studiesBackend,
		logger:         logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// Execute fetches the study, mapping a miss to StudyIDNotFound.
func (q *GetStudyQuery) Execute(ctx context.Context, req *GetStudyRequest) (*GetStudyResponse, error) {
	study, err := q.studiesBackend.GetStudy(ctx, req.StudyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, serverErrors.StudyIDNotFound
		}
		return nil, serverErrors.HandleError("", err)
	}

	return &GetStudyResponse{Study: studyFromStorage(study)}, nil
}
