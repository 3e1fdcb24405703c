package plan

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/server/commands"
)

func TestPlanCommandPrintsRecommendedDesign(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	defer func() {
		// Restore the original stdout
		os.Stdout = oldStdout
		w.Close()
	}()

	planCmd := NewPlanCommand()
	planCmd.SetArgs([]string{"--elements", "8"})
	require.NoError(t, planCmd.Execute())
	w.Close()

	// Read the captured output
	var buf bytes.Buffer
	io.Copy(&buf, r)

	var resp commands.PlanDesignResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, 8, resp.NumElements)
	require.Equal(t, commands.DefaultPlanMinActive, resp.MinActive)
	require.Equal(t, commands.DefaultPlanMaxActive, resp.MaxActive)
	require.Equal(t, 14, resp.RecommendedTasks)
	require.NotNil(t, resp.Plan)
	require.Equal(t, 9, resp.Plan.TasksPerRespondent)
	require.Equal(t, 3, resp.Plan.ExposuresPerElement)
}

func TestPlanCommandHonorsExplicitBounds(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	defer func() {
		// Restore the original stdout
		os.Stdout = oldStdout
		w.Close()
	}()

	planCmd := NewPlanCommand()
	planCmd.SetArgs([]string{"--elements", "6", "--min-active", "1", "--max-active", "3"})
	require.NoError(t, planCmd.Execute())
	w.Close()

	// Read the captured output
	var buf bytes.Buffer
	io.Copy(&buf, r)

	var resp commands.PlanDesignResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.Equal(t, 1, resp.MinActive)
	require.Equal(t, 3, resp.MaxActive)
	require.Equal(t, 9, resp.Plan.TasksPerRespondent)
}

func TestPlanCommandRequiresElements(t *testing.T) {
	planCmd := NewPlanCommand()
	planCmd.SetArgs([]string{})
	err := planCmd.Execute()
	require.ErrorContains(t, err, "num_elements must be positive")
}

func TestPlanCommandRejectsInvalidRange(t *testing.T) {
	planCmd := NewPlanCommand()
	planCmd.SetArgs([]string{"--elements", "8", "--min-active", "5", "--max-active", "3"})
	err := planCmd.Execute()
	require.ErrorContains(t, err, "active range")
}

func TestPlanCommandRejectsInfeasibleDesign(t *testing.T) {
	planCmd := NewPlanCommand()
	planCmd.SetArgs([]string{"--elements", "4", "--min-active", "4", "--max-active", "4"})
	err := planCmd.Execute()
	require.ErrorContains(t, err, "infeasible")
}
