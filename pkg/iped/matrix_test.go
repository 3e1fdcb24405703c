package iped

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testMatrix(t *testing.T, set *ElementSet, rows [][]TaskVector) *StudyMatrix {
	t.Helper()
	resp := make([]RespondentMatrix, len(rows))
	for r, vectors := range rows {
		tasks := make(RespondentMatrix, len(vectors))
		for i, v := range vectors {
			tasks[i] = TaskAssignment{
				TaskID:        fmt.Sprintf("%d_%d", r, i),
				ElementsShown: NewElementsShown(set, v),
				TaskIndex:     i,
			}
		}
		resp[r] = tasks
	}
	return NewStudyMatrix(resp)
}

func TestStudyMatrixMarshalShape(t *testing.T) {
	set, err := NewElementSet(4)
	require.NoError(t, err)

	m := testMatrix(t, set, [][]TaskVector{
		{vectorOf([]int{0, 2})},
		{vectorOf([]int{1})},
	})

	data, err := json.Marshal(m)
	require.NoError(t, err)

	want := `{"0":[{"task_id":"0_0","elements_shown":{"E1":1,"E2":0,"E3":1,"E4":0},"task_index":0}],` +
		`"1":[{"task_id":"1_0","elements_shown":{"E1":0,"E2":1,"E3":0,"E4":0},"task_index":0}]}`
	require.Equal(t, want, string(data))

	require.Equal(t, "0_0", gjson.GetBytes(data, "0.0.task_id").String())
	require.Equal(t, int64(1), gjson.GetBytes(data, "0.0.elements_shown.E3").Int())
	require.Equal(t, int64(0), gjson.GetBytes(data, "1.0.elements_shown.E1").Int())
}

func TestStudyMatrixMarshalNumericKeyOrder(t *testing.T) {
	set, err := NewElementSet(4)
	require.NoError(t, err)

	rows := make([][]TaskVector, 12)
	for r := range rows {
		rows[r] = []TaskVector{vectorOf([]int{r % 4})}
	}
	data, err := json.Marshal(testMatrix(t, set, rows))
	require.NoError(t, err)

	// "2" must precede "10"; lexical map ordering would invert them.
	require.Less(t, bytes.Index(data, []byte(`"2":`)), bytes.Index(data, []byte(`"10":`)))
	require.Less(t, bytes.Index(data, []byte(`"9":`)), bytes.Index(data, []byte(`"11":`)))
}

func TestStudyMatrixRoundTrip(t *testing.T) {
	set, err := NewElementSet(5)
	require.NoError(t, err)

	m := testMatrix(t, set, [][]TaskVector{
		{vectorOf([]int{0, 1}), vectorOf([]int{2, 4})},
		{vectorOf([]int{3}), vectorOf([]int{0, 2, 4})},
		{vectorOf([]int{1, 3}), vectorOf([]int{4})},
	})

	first, err := json.Marshal(m)
	require.NoError(t, err)

	var back StudyMatrix
	require.NoError(t, json.Unmarshal(first, &back))
	require.Equal(t, 3, back.NumRespondents())
	require.Equal(t, []string{"E1", "E2", "E3", "E4", "E5"}, back.ElementIDs())
	require.True(t, back.Respondent(1)[1].ElementsShown.Shown("E5"))
	require.False(t, back.Respondent(1)[1].ElementsShown.Shown("E2"))

	second, err := json.Marshal(&back)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestStudyMatrixUnmarshalRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "gap", in: `{"0":[],"2":[]}`},
		{name: "non_numeric", in: `{"x":[]}`},
		{name: "negative", in: `{"-1":[]}`},
		{name: "null_respondent", in: `{"0":null}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var m StudyMatrix
			require.Error(t, json.Unmarshal([]byte(test.in), &m))
		})
	}
}

func TestElementsShownUnmarshalRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: `{}`},
		{name: "non_binary", in: `{"E1":2}`},
		{name: "unknown_key", in: `{"Z1":1}`},
		{name: "gap_in_elements", in: `{"E1":1,"E3":0}`},
		{name: "not_an_object", in: `[1,0]`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var e ElementsShown
			require.Error(t, json.Unmarshal([]byte(test.in), &e))
		})
	}
}

func TestStudyMatrixExposure(t *testing.T) {
	set, err := NewElementSet(4)
	require.NoError(t, err)

	m := testMatrix(t, set, [][]TaskVector{
		{vectorOf([]int{0, 1}), vectorOf([]int{0, 2})},
		{vectorOf([]int{0, 3}), vectorOf([]int{1, 2})},
	})

	require.Equal(t, 4, m.TotalTasks())
	require.Equal(t, []int{3, 2, 2, 1}, m.Exposure().Counts())

	report := m.ExposureReport()
	require.Equal(t, 3, report.Counts["E1"])
	require.Equal(t, 1, report.Counts["E4"])
	require.Equal(t, 3, report.Max)
	require.Equal(t, 1, report.Min)
	require.InDelta(t, 2.0, report.Mean, 1e-9)
	require.InDelta(t, 1.0, report.MaxDeviation, 1e-9)
	require.Greater(t, report.CV, 0.0)
}
