package iped

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Bounds enforced by Params.Validate. Studies outside these ranges are
// rejected with ErrInvalidConfiguration rather than attempted.
const (
	MinElements = 4
	MaxElements = 16

	MinTasksPerRespondent = 1
	MaxTasksPerRespondent = 100

	MinRespondents = 1
	MaxRespondents = 10000
)

// Params holds the study design parameters for one generation run.
// All fields are required; the zero value does not validate.
type Params struct {
	// NumElements is the number of elements under study. Elements are
	// identified as "E1".."En".
	NumElements int `json:"num_elements"`

	// TasksPerRespondent is the number of tasks shown to each respondent.
	TasksPerRespondent int `json:"tasks_per_respondent"`

	// NumRespondents is the number of respondent rows to generate.
	NumRespondents int `json:"num_respondents"`

	// MinActive and MaxActive bound the number of elements shown
	// simultaneously in a single task.
	MinActive int `json:"min_active"`
	MaxActive int `json:"max_active"`
}

// Validate checks every field against the supported ranges and the
// cross-field constraint min_active <= max_active <= num_elements.
// All failures wrap ErrInvalidConfiguration.
func (p Params) Validate() error {
	if p.NumElements < MinElements || p.NumElements > MaxElements {
		return fmt.Errorf("num_elements must be between %d and %d, got %d: %w",
			MinElements, MaxElements, p.NumElements, ErrInvalidConfiguration)
	}
	if p.TasksPerRespondent < MinTasksPerRespondent || p.TasksPerRespondent > MaxTasksPerRespondent {
		return fmt.Errorf("tasks_per_respondent must be between %d and %d, got %d: %w",
			MinTasksPerRespondent, MaxTasksPerRespondent, p.TasksPerRespondent, ErrInvalidConfiguration)
	}
	if p.NumRespondents < MinRespondents || p.NumRespondents > MaxRespondents {
		return fmt.Errorf("num_respondents must be between %d and %d, got %d: %w",
			MinRespondents, MaxRespondents, p.NumRespondents, ErrInvalidConfiguration)
	}
	if p.MinActive < 1 {
		return fmt.Errorf("min_active must be at least 1, got %d: %w",
			p.MinActive, ErrInvalidConfiguration)
	}
	if p.MaxActive > p.NumElements {
		return fmt.Errorf("max_active %d exceeds num_elements %d: %w",
			p.MaxActive, p.NumElements, ErrInvalidConfiguration)
	}
	if p.MinActive > p.MaxActive {
		return fmt.Errorf("min_active %d exceeds max_active %d: %w",
			p.MinActive, p.MaxActive, ErrInvalidConfiguration)
	}
	return nil
}

// TotalTasks returns the number of tasks the full matrix will contain.
func (p Params) TotalTasks() int {
	return p.NumRespondents * p.TasksPerRespondent
}

// DefaultSeed derives a stable seed from the study parameters, so that
// repeated runs over the same design produce the same matrix when the
// caller supplies no seed of its own.
func DefaultSeed(p Params) int64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%d|%d|%d|%d|%d",
		p.NumElements, p.TasksPerRespondent, p.NumRespondents, p.MinActive, p.MaxActive)
	return int64(h.Sum64())
}
