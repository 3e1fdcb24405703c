// Package plan sizes studies before generation: how many tasks each
// respondent should receive for a given element count, and whether an
// exposure target is reachable within the design's combination space.
// Everything here is advisory arithmetic; it performs no generation.
package plan

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

var (
	// ErrInvalid is returned for parameters outside the supported ranges.
	ErrInvalid = errors.New("invalid plan parameters")

	// ErrInfeasible is returned when the exposure targets cannot be met
	// within the design's visible capacity.
	ErrInfeasible = errors.New("exposure plan is infeasible")
)

// Tuning constants for the exposure planner.
const (
	// PerElementExposures is the minimum number of times each element
	// should be shown to a respondent.
	PerElementExposures = 3

	// SafetyRows is the margin added above the identifiability floor.
	SafetyRows = 3

	// AbsenceRatio scales required absences against exposures; 2 means
	// each element should be absent at least twice as often as shown.
	AbsenceRatio = 2.0

	// TRatio scales the task count above the minimal feasible value.
	TRatio = 1.5

	// CapacitySlack is the number of distinct patterns the planner tries
	// to leave unused so a respondent never needs every single one.
	CapacitySlack = 1
)

// Task count recommendation thresholds. Small studies take half the
// two-way combination space; larger studies shift to wider subsets and
// a hard cap.
const (
	minPlannableElements = 4
	fallbackTasks        = 8
)

// RecommendedTasks returns the suggested tasks-per-respondent count for
// a study over numElements elements.
func RecommendedTasks(numElements int) int {
	if numElements < minPlannableElements {
		return fallbackTasks
	}

	k := 4
	switch {
	case numElements <= 8:
		k = 2
	case numElements <= 16:
		k = 3
	}

	ceiling := 120
	switch {
	case numElements <= 16:
		ceiling = 24
	case numElements <= 32:
		ceiling = 48
	case numElements <= 64:
		ceiling = 96
	}

	tasks := combin.Binomial(numElements, k) / 2
	if tasks < 1 {
		tasks = 1
	}
	if tasks > ceiling {
		tasks = ceiling
	}
	return tasks
}

// Capacity returns the number of distinct task patterns with an active
// count in [minActive, maxActive] over numElements elements. A range
// that admits nothing returns zero.
func Capacity(numElements, minActive, maxActive int) int {
	lo, hi := minActive, maxActive
	if lo < 0 {
		lo = 0
	}
	if hi > numElements {
		hi = numElements
	}
	total := 0
	for k := lo; k <= hi; k++ {
		total += combin.Binomial(numElements, k)
	}
	return total
}

// Plan is the result of Build: a task count per respondent together
// with the exposure structure it buys.
type Plan struct {
	// TasksPerRespondent is the planned sequence length.
	TasksPerRespondent int `json:"tasks_per_respondent"`

	// ExposuresPerElement is how often each element appears across one
	// respondent's sequence.
	ExposuresPerElement int `json:"exposures_per_element"`

	// AbsencesPerElement is how often each element is hidden.
	AbsencesPerElement int `json:"absences_per_element"`

	// MinAbsences is the absence floor implied by AbsenceRatio.
	MinAbsences int `json:"min_absences"`

	// AvgActivePerTask is the expected number of active elements per task.
	AvgActivePerTask float64 `json:"avg_active_per_task"`

	// Capacity is the design's distinct pattern count for the active range.
	Capacity int `json:"capacity"`
}

// Build computes the smallest task count that gives every element at
// least PerElementExposures exposures while respecting the absence
// ratio and the per-task active cap, then reports the exposure
// structure at that count.
func Build(numElements, minActive, maxActive int) (*Plan, error) {
	if numElements < 1 {
		return nil, fmt.Errorf("num_elements must be positive, got %d: %w", numElements, ErrInvalid)
	}
	if minActive < 1 || minActive > maxActive || maxActive > numElements {
		return nil, fmt.Errorf("active range [%d, %d] invalid for %d elements: %w",
			minActive, maxActive, numElements, ErrInvalid)
	}

	capacity := Capacity(numElements, minActive, maxActive)

	// Identifiability floor for a flat on/off design, scaled up.
	tasks := SafetyRows + 1
	if tasks < 2 {
		tasks = 2
	}
	tasks = int(math.Ceil(float64(tasks) * TRatio))

	slack := CapacitySlack
	exposures := 0
	for {
		if tasks > max(capacity-slack, 0) {
			if tasks > capacity {
				return nil, fmt.Errorf("%d tasks exceed the %d distinct patterns available: %w",
					tasks, capacity, ErrInfeasible)
			}
			slack = 0
		}
		if e := exposureCeiling(tasks, numElements, maxActive); e >= PerElementExposures {
			exposures = e
			break
		}
		tasks++
	}

	return &Plan{
		TasksPerRespondent:  tasks,
		ExposuresPerElement: exposures,
		AbsencesPerElement:  tasks - exposures,
		MinAbsences:         int(math.Ceil(AbsenceRatio * float64(exposures))),
		AvgActivePerTask:    float64(numElements*exposures) / float64(tasks),
		Capacity:            capacity,
	}, nil
}

// exposureCeiling returns the largest per-element exposure count that
// tasks rows can carry: bounded by the absence ratio and by the total
// number of active slots the rows provide.
func exposureCeiling(tasks, numElements, maxActive int) int {
	byRatio := int(math.Floor(float64(tasks) / (1 + AbsenceRatio)))
	byRowCap := tasks * maxActive / numElements
	return min(byRatio, byRowCap)
}
