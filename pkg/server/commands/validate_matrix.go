package commands

import (
	"context"
	"errors"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
)

var errMissingMatrix = errors.New("request has no matrix to validate")

// ValidateMatrixRequest re-checks a posted matrix against the study
// parameters it claims to satisfy. Tolerance is optional.
type ValidateMatrixRequest struct {
	Params    iped.Params       `json:"params"`
	Matrix    *iped.StudyMatrix `json:"matrix"`
	Tolerance *iped.Tolerance   `json:"tolerance,omitempty"`
}

// ValidateMatrixResponse reports the verdict. Invariant and Detail are
// only set when the matrix is invalid.
type ValidateMatrixResponse struct {
	Valid      bool   `json:"valid"`
	Invariant  string `json:"invariant,omitempty"`
	Respondent *int   `json:"respondent,omitempty"`
	TaskIndex  *int   `json:"task_index,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// ValidateMatrixCommand validates externally supplied matrices.
type ValidateMatrixCommand struct {
	logger logger.Logger
}

// ValidateMatrixCmdOption is a functional option for ValidateMatrixCommand.
type ValidateMatrixCmdOption func(*ValidateMatrixCommand)

// WithValidateMatrixCmdLogger overrides the default noop logger.
func WithValidateMatrixCmdLogger(l logger.Logger) ValidateMatrixCmdOption {
	return func(c *ValidateMatrixCommand) {
		c.logger = l
	}
}

// NewValidateMatrixCommand returns a validation command.
func NewValidateMatrixCommand(opts ...ValidateMatrixCmdOption) *ValidateMatrixCommand {
	cmd := &ValidateMatrixCommand{
		logger: logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

// Execute validates the matrix. Bad parameters are a request error; a
// matrix that fails an invariant is reported in the response body, not
// as an API error, so callers can inspect the finding.
func (c *ValidateMatrixCommand) Execute(ctx context.Context, req *ValidateMatrixRequest) (*ValidateMatrixResponse, error) {
	if err := req.Params.Validate(); err != nil {
		return nil, serverErrors.HandleGenerationError(err)
	}
	if req.Matrix == nil {
		return nil, serverErrors.NewInvalidRequestError(errMissingMatrix)
	}

	tolerance := iped.DefaultTolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}

	if verr := iped.ValidateMatrix(req.Matrix, req.Params, tolerance); verr != nil {
		var v *iped.ValidationError
		if errors.As(verr, &v) {
			resp := &ValidateMatrixResponse{
				Valid:     false,
				Invariant: v.Invariant,
				Detail:    v.Detail,
			}
			if v.Respondent >= 0 {
				resp.Respondent = &v.Respondent
				resp.TaskIndex = &v.TaskIndex
			}
			return resp, nil
		}
		return nil, serverErrors.HandleGenerationError(verr)
	}

	return &ValidateMatrixResponse{Valid: true}, nil
}
