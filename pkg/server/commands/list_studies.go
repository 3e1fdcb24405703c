package commands

import (
	"context"

	"github.com/mindsurve/taskgen/pkg/encoder"
	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// ListStudiesRequest selects a page of studies. A zero PageSize falls
// back to the datastore default; the continuation token comes from the
// previous page's response.
type ListStudiesRequest struct {
	PageSize          int32  `json:"page_size,omitempty"`
	ContinuationToken string `json:"continuation_token,omitempty"`
}

// ListStudiesResponse returns one page of studies in creation order.
// ContinuationToken is empty on the last page.
type ListStudiesResponse struct {
	Studies           []*Study `json:"studies"`
	ContinuationToken string   `json:"continuation_token"`
}

// ListStudiesQuery pages through stored studies.
type ListStudiesQuery struct {
	studiesBackend storage.StudiesBackend
	logger         logger.Logger
	encoder        encoder.Encoder
}

// ListStudiesQueryOption is a functional option for ListStudiesQuery.
type ListStudiesQueryOption func(*ListStudiesQuery)

// WithListStudiesQueryLogger overrides the default noop logger.
func WithListStudiesQueryLogger(l logger.Logger) ListStudiesQueryOption {
	return func(q *ListStudiesQuery) {
		q.logger = l
	}
}

// WithListStudiesQueryEncoder sets the continuation token codec. The
// default is a base64 encoder; servers configured with an encryption
// key pass a token encoder instead.
func WithListStudiesQueryEncoder(e encoder.Encoder) ListStudiesQueryOption {
	return func(q *ListStudiesQuery) {
		q.encoder = e
	}
}

// NewListStudiesQuery returns a query backed by the given datastore.
func NewListStudiesQuery(studiesBackend storage.StudiesBackend, opts ...ListStudiesQueryOption) *ListStudiesQuery {
	query := &ListStudiesQuery{
		studiesBackend: studiesBackend,
		logger:         logger.NewNoopLogger(),
		encoder:        encoder.NewBase64Encoder(),
	}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// Execute returns one page of studies. Tokens are opaque to callers;
// a token the server did not mint is rejected outright.
func (q *ListStudiesQuery) Execute(ctx context.Context, req *ListStudiesRequest) (*ListStudiesResponse, error) {
	decodedContToken, err := q.encoder.Decode(req.ContinuationToken)
	if err != nil {
		return nil, serverErrors.InvalidContinuationToken
	}

	opts := storage.NewPaginationOptions(req.PageSize, string(decodedContToken))
	studies, continuationToken, err := q.studiesBackend.ListStudies(ctx, opts)
	if err != nil {
		return nil, serverErrors.HandleError("", err)
	}

	encodedContToken, err := q.encoder.Encode([]byte(continuationToken))
	if err != nil {
		return nil, serverErrors.HandleError("", err)
	}

	resp := &ListStudiesResponse{
		Studies:           make([]*Study, 0, len(studies)),
		ContinuationToken: encodedContToken,
	}
	for _, study := range studies {
		resp.Studies = append(resp.Studies, studyFromStorage(study))
	}
	return resp, nil
}
