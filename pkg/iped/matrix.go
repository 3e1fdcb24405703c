package iped

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// TaskAssignment is one task in a respondent's sequence. TaskID is
// "{respondent}_{index}" with both parts zero based, unique across the
// whole study.
type TaskAssignment struct {
	TaskID        string        `json:"task_id"`
	ElementsShown ElementsShown `json:"elements_shown"`
	TaskIndex     int           `json:"task_index"`
}

// ElementsShown is a task's per-element visibility. It serializes as an
// object with one 0/1 entry per element, keys in element order, so the
// encoded form is stable byte for byte.
type ElementsShown struct {
	ids    []string
	vector TaskVector
}

// NewElementsShown binds a task vector to a study's element set. The
// identifier slice is shared with the set, not copied.
func NewElementsShown(set *ElementSet, v TaskVector) ElementsShown {
	return ElementsShown{ids: set.IDs(), vector: v}
}

// Vector returns the underlying bit vector.
func (e ElementsShown) Vector() TaskVector { return e.vector }

// NumElements returns the number of elements the task spans.
func (e ElementsShown) NumElements() int { return len(e.ids) }

// Shown reports whether the identified element is active.
func (e ElementsShown) Shown(id string) bool {
	ord, ok := parseElementOrdinal(id)
	if !ok || ord > len(e.ids) {
		return false
	}
	return e.vector.Has(ord - 1)
}

func (e ElementsShown) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, id := range e.ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(id))
		b.WriteByte(':')
		if e.vector.Has(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (e *ElementsShown) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.New("elements_shown must not be empty")
	}
	if len(raw) > MaxElements {
		return fmt.Errorf("elements_shown has %d entries, at most %d supported", len(raw), MaxElements)
	}
	ids := make([]string, len(raw))
	var v TaskVector
	for id, val := range raw {
		ord, ok := parseElementOrdinal(id)
		if !ok || ord > len(raw) {
			return fmt.Errorf("unexpected element key %q", id)
		}
		switch val {
		case 0:
		case 1:
			v |= 1 << uint(ord-1)
		default:
			return fmt.Errorf("element %q has non-binary value %d", id, val)
		}
		ids[ord-1] = id
	}
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("elements_shown is missing element E%d", i+1)
		}
	}
	e.ids, e.vector = ids, v
	return nil
}

// RespondentMatrix is one respondent's ordered task sequence.
type RespondentMatrix []TaskAssignment

// StudyMatrix is the complete generated design, one RespondentMatrix
// per respondent. It serializes as an object keyed by respondent index
// ("0".."R-1"), keys emitted in numeric order so that equal matrices
// encode to equal bytes.
type StudyMatrix struct {
	respondents []RespondentMatrix
}

// NewStudyMatrix wraps pre-built respondent sequences. The slice is
// retained, not copied.
func NewStudyMatrix(respondents []RespondentMatrix) *StudyMatrix {
	return &StudyMatrix{respondents: respondents}
}

// NumRespondents returns the number of respondent rows.
func (m *StudyMatrix) NumRespondents() int { return len(m.respondents) }

// Respondent returns the task sequence of respondent i.
func (m *StudyMatrix) Respondent(i int) RespondentMatrix { return m.respondents[i] }

// TotalTasks returns the number of tasks across all respondents.
func (m *StudyMatrix) TotalTasks() int {
	total := 0
	for _, r := range m.respondents {
		total += len(r)
	}
	return total
}

// NumElements returns the element count the matrix was generated over,
// or zero for an empty matrix.
func (m *StudyMatrix) NumElements() int {
	if len(m.respondents) == 0 || len(m.respondents[0]) == 0 {
		return 0
	}
	return m.respondents[0][0].ElementsShown.NumElements()
}

// ElementIDs returns the element identifiers the matrix spans, in
// element order, or nil for an empty matrix.
func (m *StudyMatrix) ElementIDs() []string {
	if len(m.respondents) == 0 || len(m.respondents[0]) == 0 {
		return nil
	}
	return m.respondents[0][0].ElementsShown.ids
}

// Exposure recomputes the study-wide per-element exposure tally.
func (m *StudyMatrix) Exposure() *ExposureTally {
	t := NewExposureTally(m.NumElements())
	for _, resp := range m.respondents {
		for _, task := range resp {
			t.Add(task.ElementsShown.Vector())
		}
	}
	return t
}

func (m *StudyMatrix) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, tasks := range m.respondents {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(strconv.Itoa(i)))
		b.WriteByte(':')
		enc, err := json.Marshal(tasks)
		if err != nil {
			return nil, err
		}
		b.Write(enc)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func (m *StudyMatrix) UnmarshalJSON(data []byte) error {
	var raw map[string]RespondentMatrix
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]RespondentMatrix, len(raw))
	for key, tasks := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(raw) {
			return fmt.Errorf("respondent key %q is not a contiguous zero-based index", key)
		}
		out[idx] = tasks
	}
	for i := range out {
		if out[i] == nil {
			return fmt.Errorf("missing respondent %d", i)
		}
	}
	m.respondents = out
	return nil
}
