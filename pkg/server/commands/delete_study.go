package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// DeleteStudyRequest identifies the study to delete.
type DeleteStudyRequest struct {
	StudyID string `json:"study_id"`
}

// DeleteStudyResponse is empty; a successful delete has no body.
type DeleteStudyResponse struct{}

// DeleteStudyCommand removes a study and its matrix.
type DeleteStudyCommand struct {
	studiesBackend storage.StudiesBackend
	logger         logger.Logger
}

// DeleteStudyCmdOption is a functional option for DeleteStudyCommand.
type DeleteStudyCmdOption func(*DeleteStudyCommand)

// WithDeleteStudyCmdLogger overrides the default noop logger.
func WithDeleteStudyCmdLogger(l logger.Logger) DeleteStudyCmdOption {
	return func(c *DeleteStudyCommand) {
		c.logger = l
	}
}

// NewDeleteStudyCommand returns a command backed by the given datastore.
func NewDeleteStudyCommand(studiesBackend storage.StudiesBackend, opts ...DeleteStudyCmdOption) *DeleteStudyCommand {
	cmd := &DeleteStudyCommand{
		studiesBackend: studiesBackend,
		logger:         logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

// Execute deletes the study. Deleting a study that does not exist
// returns StudyIDNotFound; deletes are not reversible.
func (c *DeleteStudyCommand) Execute(ctx context.Context, req *DeleteStudyRequest) (*DeleteStudyResponse, error) {
	if err := c.studiesBackend.DeleteStudy(ctx, req.StudyID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, serverErrors.StudyIDNotFound
		}
		return nil, serverErrors.HandleError("", err)
	}

	c.logger.InfoWithContext(ctx, "study deleted", zap.String("study_id", req.StudyID))
	return &DeleteStudyResponse{}, nil
}
