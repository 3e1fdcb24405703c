package iped

import "errors"

var (
	// ErrInvalidConfiguration is returned for out-of-range study parameters,
	// before any generation work is attempted.
	ErrInvalidConfiguration = errors.New("invalid study configuration")

	// ErrInfeasibleDesign is returned when the active-count bounds admit no
	// candidate tasks, or when a regenerated matrix still fails validation.
	ErrInfeasibleDesign = errors.New("infeasible study design")

	// ErrInfeasibleBalance is returned when the candidate pool was exhausted
	// without bringing per-element exposure within tolerance. Widening the
	// active bounds or raising the pool cap usually resolves it.
	ErrInfeasibleBalance = errors.New("exposure balance not attainable")
)
