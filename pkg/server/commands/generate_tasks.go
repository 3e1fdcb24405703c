package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
)

// GenerateTasksRequest carries the study parameters for one ad-hoc
// generation run. Seed and Tolerance are optional; without a seed the
// run is deterministic in the parameters alone.
type GenerateTasksRequest struct {
	Params    iped.Params     `json:"params"`
	Seed      *int64          `json:"seed,omitempty"`
	Tolerance *iped.Tolerance `json:"tolerance,omitempty"`
}

// GenerateTasksResponse returns the complete task matrix together with
// the run's generation statistics.
type GenerateTasksResponse struct {
	Matrix *iped.StudyMatrix     `json:"matrix"`
	Stats  *iped.GenerationStats `json:"stats"`
}

// GenerateTasksCommand generates a task matrix without persisting it.
type GenerateTasksCommand struct {
	generator *iped.Generator
	logger    logger.Logger
}

// GenerateTasksCmdOption is a functional option for GenerateTasksCommand.
type GenerateTasksCmdOption func(*GenerateTasksCommand)

// WithGenerateTasksCmdLogger overrides the default noop logger.
func WithGenerateTasksCmdLogger(l logger.Logger) GenerateTasksCmdOption {
	return func(c *GenerateTasksCommand) {
		c.logger = l
	}
}

// NewGenerateTasksCommand returns a command backed by the given
// generator.
func NewGenerateTasksCommand(generator *iped.Generator, opts ...GenerateTasksCmdOption) *GenerateTasksCommand {
	cmd := &GenerateTasksCommand{
		generator: generator,
		logger:    logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

// Execute runs one generation and returns the matrix. Infeasible or
// invalid designs surface as typed API errors.
func (c *GenerateTasksCommand) Execute(ctx context.Context, req *GenerateTasksRequest) (*GenerateTasksResponse, error) {
	opts := make([]iped.GenerateOption, 0, 2)
	if req.Seed != nil {
		opts = append(opts, iped.WithSeed(*req.Seed))
	}
	if req.Tolerance != nil {
		opts = append(opts, iped.WithRequestTolerance(*req.Tolerance))
	}

	matrix, stats, err := c.generator.Generate(ctx, req.Params, opts...)
	if err != nil {
		c.logger.InfoWithContext(ctx, "task generation rejected", zap.Error(err))
		return nil, serverErrors.HandleGenerationError(err)
	}

	return &GenerateTasksResponse{Matrix: matrix, Stats: stats}, nil
}
