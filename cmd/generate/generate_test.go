package generate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/server/commands"
)

func TestGenerateCommandWritesMatrixFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "matrix.json")

	generateCmd := NewGenerateCommand()
	generateCmd.SetArgs([]string{
		"--elements", "8",
		"--tasks", "24",
		"--respondents", "5",
		"--min-active", "2",
		"--max-active", "4",
		"--seed", "42",
		"--output", output,
	})
	require.NoError(t, generateCmd.Execute())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)

	var resp commands.GenerateTasksResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Equal(t, 5, resp.Matrix.NumRespondents())
	require.Equal(t, 24*5, resp.Matrix.TotalTasks())
	require.Equal(t, int64(42), resp.Stats.Seed)
}

func TestGenerateCommandIsDeterministicForSeed(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	for _, output := range []string{first, second} {
		generateCmd := NewGenerateCommand()
		generateCmd.SetArgs([]string{
			"--elements", "8",
			"--tasks", "24",
			"--respondents", "5",
			"--min-active", "2",
			"--max-active", "4",
			"--seed", "7",
			"--output", output,
		})
		require.NoError(t, generateCmd.Execute())
	}

	firstRaw, err := os.ReadFile(first)
	require.NoError(t, err)
	secondRaw, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, firstRaw, secondRaw)
}

func TestGenerateCommandRejectsInvalidParams(t *testing.T) {
	generateCmd := NewGenerateCommand()
	generateCmd.SetArgs([]string{
		"--elements", "3",
		"--tasks", "24",
		"--respondents", "5",
	})
	err := generateCmd.Execute()
	require.ErrorContains(t, err, "num_elements")
}

func TestGenerateCommandReadsParamsFile(t *testing.T) {
	dir := t.TempDir()
	paramsFile := filepath.Join(dir, "params.yaml")
	output := filepath.Join(dir, "matrix.json")

	params := `num_elements: 8
tasks_per_respondent: 24
num_respondents: 3
min_active: 2
max_active: 4
`
	require.NoError(t, os.WriteFile(paramsFile, []byte(params), 0o600))

	generateCmd := NewGenerateCommand()
	generateCmd.SetArgs([]string{
		"--file", paramsFile,
		"--seed", "11",
		"--output", output,
	})
	require.NoError(t, generateCmd.Execute())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)

	var resp commands.GenerateTasksResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Equal(t, 3, resp.Matrix.NumRespondents())
	require.Equal(t, int64(11), resp.Stats.Seed)
}

func TestGenerateCommandRejectsUnreadableParamsFile(t *testing.T) {
	generateCmd := NewGenerateCommand()
	generateCmd.SetArgs([]string{"--file", filepath.Join(t.TempDir(), "missing.yaml")})
	err := generateCmd.Execute()
	require.ErrorContains(t, err, "read params file")
}
