package iped

import "fmt"

// Invariant names carried by ValidationError diagnostics.
const (
	InvariantShape           = "matrix_shape"
	InvariantActiveBounds    = "active_count_bounds"
	InvariantTaskSequence    = "task_sequence"
	InvariantTaskIDUnique    = "task_id_uniqueness"
	InvariantExposureBalance = "exposure_balance"
)

// ValidationError identifies the first invariant violation found in a
// StudyMatrix. Respondent and TaskIndex are -1 for study-wide findings
// such as balance.
type ValidationError struct {
	Invariant  string
	Respondent int
	TaskIndex  int
	Detail     string
}

func (e *ValidationError) Error() string {
	if e.Respondent < 0 {
		return fmt.Sprintf("matrix invalid (%s): %s", e.Invariant, e.Detail)
	}
	return fmt.Sprintf("matrix invalid (%s) at respondent %d task %d: %s",
		e.Invariant, e.Respondent, e.TaskIndex, e.Detail)
}

func violation(invariant string, respondent, task int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Invariant:  invariant,
		Respondent: respondent,
		TaskIndex:  task,
		Detail:     fmt.Sprintf(format, args...),
	}
}

// ValidateMatrix re-checks a completed matrix against the study
// parameters: per-task active counts, per-respondent sequence shape,
// study-wide task id uniqueness, and exposure balance under tol.
// Respondent sequences are deliberately not compared to each other;
// identical sequences across respondents are allowed.
//
// The walk is O(respondents * tasks * elements) and stops at the first
// violation.
func ValidateMatrix(m *StudyMatrix, params Params, tol Tolerance) error {
	if got := m.NumRespondents(); got != params.NumRespondents {
		return violation(InvariantShape, -1, -1,
			"expected %d respondents, got %d", params.NumRespondents, got)
	}

	seen := make(map[string]struct{}, params.TotalTasks())
	for r := 0; r < m.NumRespondents(); r++ {
		tasks := m.Respondent(r)
		if len(tasks) != params.TasksPerRespondent {
			return violation(InvariantShape, r, -1,
				"expected %d tasks, got %d", params.TasksPerRespondent, len(tasks))
		}
		for i, task := range tasks {
			if task.TaskIndex != i {
				return violation(InvariantTaskSequence, r, i,
					"task_index %d at position %d", task.TaskIndex, i)
			}
			if task.TaskID == "" {
				return violation(InvariantTaskIDUnique, r, i, "empty task_id")
			}
			if _, dup := seen[task.TaskID]; dup {
				return violation(InvariantTaskIDUnique, r, i,
					"task_id %q already assigned", task.TaskID)
			}
			seen[task.TaskID] = struct{}{}
			if n := task.ElementsShown.NumElements(); n != params.NumElements {
				return violation(InvariantShape, r, i,
					"task spans %d elements, study has %d", n, params.NumElements)
			}
			if ac := task.ElementsShown.Vector().ActiveCount(); ac < params.MinActive || ac > params.MaxActive {
				return violation(InvariantActiveBounds, r, i,
					"active count %d outside [%d, %d]", ac, params.MinActive, params.MaxActive)
			}
		}
	}

	exposure := m.Exposure()
	if !tol.Check(exposure) {
		return violation(InvariantExposureBalance, -1, -1,
			"max exposure deviation %.2f exceeds allowed %.2f (mean %.2f)",
			exposure.MaxDeviation(), tol.Allowed(exposure.Mean()), exposure.Mean())
	}
	return nil
}
