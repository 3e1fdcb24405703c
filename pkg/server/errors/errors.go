// Package errors contains the typed errors the taskgen API returns to
// callers, together with the mapping from internal error values onto
// them.
package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/plan"
	"github.com/mindsurve/taskgen/pkg/storage"
)

// InternalServerErrorMsg is the message returned to callers when an
// internal error carries no public message of its own.
const InternalServerErrorMsg = "Internal Server Error"

// Error codes returned in the "code" field of API error bodies.
const (
	CodeInternalError              = "internal_error"
	CodeInvalidRequest             = "invalid_request"
	CodeInvalidConfiguration       = "invalid_configuration"
	CodeInfeasibleDesign           = "infeasible_design"
	CodeInfeasibleBalance          = "infeasible_balance"
	CodeMatrixValidationFailed     = "matrix_validation_failed"
	CodeGenerationDeadlineExceeded = "generation_deadline_exceeded"
	CodeStudyNotFound              = "study_not_found"
	CodeInvalidContinuationToken   = "invalid_continuation_token"
	CodeRequestCancelled           = "request_cancelled"
	CodeRequestDeadlineExceeded    = "request_deadline_exceeded"
)

// APIError couples a stable machine-readable code with the HTTP status
// it encodes to. The message is safe to return to callers; the wrapped
// internal error, if any, is logged but never serialized.
type APIError struct {
	status   int
	code     string
	message  string
	internal error
}

func (e *APIError) Error() string {
	return e.message
}

// HTTPStatusCode returns the HTTP status this error encodes to.
func (e *APIError) HTTPStatusCode() int {
	return e.status
}

// CodeString returns the stable error code for the response body.
func (e *APIError) CodeString() string {
	return e.code
}

// Internal returns the underlying cause, if any.
func (e *APIError) Internal() error {
	return e.internal
}

func (e *APIError) Unwrap() error {
	return e.internal
}

var (
	// StudyIDNotFound is returned when a study lookup misses.
	StudyIDNotFound = &APIError{
		status:  http.StatusNotFound,
		code:    CodeStudyNotFound,
		message: "Study ID not found",
	}

	// InvalidContinuationToken is returned when a list request carries a
	// token the server did not mint.
	InvalidContinuationToken = &APIError{
		status:  http.StatusBadRequest,
		code:    CodeInvalidContinuationToken,
		message: "Invalid continuation token",
	}

	// RequestCancelled is returned when the caller abandoned the request
	// before it completed.
	RequestCancelled = &APIError{
		status:  http.StatusBadRequest,
		code:    CodeRequestCancelled,
		message: "Request Cancelled Error",
	}

	// RequestDeadlineExceeded is returned when a datastore call ran out
	// of time before the operation completed.
	RequestDeadlineExceeded = &APIError{
		status:  http.StatusGatewayTimeout,
		code:    CodeRequestDeadlineExceeded,
		message: "Request Deadline Exceeded",
	}

	// GenerationDeadlineExceeded is returned when matrix generation hit
	// the configured deadline. The design is treated as infeasible at
	// the current limits rather than as a transport failure.
	GenerationDeadlineExceeded = &APIError{
		status:  http.StatusUnprocessableEntity,
		code:    CodeGenerationDeadlineExceeded,
		message: "generation did not complete within the configured deadline",
	}
)

// NewInternalError returns an internal API error with a public message.
// An empty message falls back to InternalServerErrorMsg so the internal
// cause never leaks into the response.
func NewInternalError(message string, internal error) *APIError {
	if message == "" {
		message = InternalServerErrorMsg
	}
	return &APIError{
		status:   http.StatusInternalServerError,
		code:     CodeInternalError,
		message:  message,
		internal: internal,
	}
}

// NewInvalidRequestError returns a 400 for a request the server could
// not parse or that fails basic shape checks.
func NewInvalidRequestError(err error) *APIError {
	return &APIError{
		status:   http.StatusBadRequest,
		code:     CodeInvalidRequest,
		message:  err.Error(),
		internal: err,
	}
}

// InvalidStudyConfiguration returns a 400 for parameters outside the
// supported ranges.
func InvalidStudyConfiguration(err error) *APIError {
	return &APIError{
		status:   http.StatusBadRequest,
		code:     CodeInvalidConfiguration,
		message:  err.Error(),
		internal: err,
	}
}

// InfeasibleDesign returns a 422 for a structurally impossible design.
func InfeasibleDesign(err error) *APIError {
	return &APIError{
		status:   http.StatusUnprocessableEntity,
		code:     CodeInfeasibleDesign,
		message:  err.Error(),
		internal: err,
	}
}

// InfeasibleBalance returns a 422 for a design whose exposure balance
// could not be met even after pool growth.
func InfeasibleBalance(err error) *APIError {
	return &APIError{
		status:   http.StatusUnprocessableEntity,
		code:     CodeInfeasibleBalance,
		message:  err.Error(),
		internal: err,
	}
}

// MatrixValidationFailed returns a 422 for a submitted matrix that
// violates a design invariant.
func MatrixValidationFailed(err error) *APIError {
	return &APIError{
		status:   http.StatusUnprocessableEntity,
		code:     CodeMatrixValidationFailed,
		message:  err.Error(),
		internal: err,
	}
}

// HandleError is used to surface unexpected datastore errors to the
// caller. Recognized sentinel errors map to their typed equivalents;
// anything else becomes an internal error with the given public
// message.
func HandleError(public string, err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidContinuationToken):
		return InvalidContinuationToken
	case errors.Is(err, storage.ErrCancelled), errors.Is(err, context.Canceled):
		return RequestCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return RequestDeadlineExceeded
	default:
		return NewInternalError(public, err)
	}
}

// HandleGenerationError maps errors from the planner and the matrix
// generator onto API errors. Balance rejections are matched before
// general design rejections because the generator wraps both sentinels
// around the same validation failure.
func HandleGenerationError(err error) error {
	switch {
	case errors.Is(err, iped.ErrInvalidConfiguration), errors.Is(err, plan.ErrInvalid):
		return InvalidStudyConfiguration(err)
	case errors.Is(err, iped.ErrInfeasibleBalance):
		return InfeasibleBalance(err)
	case errors.Is(err, iped.ErrInfeasibleDesign), errors.Is(err, plan.ErrInfeasible):
		return InfeasibleDesign(err)
	case errors.Is(err, context.DeadlineExceeded):
		return GenerationDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return RequestCancelled
	}

	var verr *iped.ValidationError
	if errors.As(err, &verr) {
		return MatrixValidationFailed(err)
	}
	return NewInternalError("", err)
}
