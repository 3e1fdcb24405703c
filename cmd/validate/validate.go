// Package validate contains the command to validate a task matrix file.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/server/commands"
)

const (
	fileFlag        = "file"
	elementsFlag    = "elements"
	tasksFlag       = "tasks"
	respondentsFlag = "respondents"
	minActiveFlag   = "min-active"
	maxActiveFlag   = "max-active"
)

func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a task matrix JSON file against study parameters",
		Long:  "Check a task matrix file for shape, per-task bounds, task numbering, and exposure\nbalance violations. The file may hold a bare matrix or the output of 'taskgen generate'.",
		RunE:  runValidate,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.String(fileFlag, "", "path to the matrix JSON file")
	flags.Int(elementsFlag, 0, "number of elements in the study")
	flags.Int(tasksFlag, 0, "number of tasks each respondent completes")
	flags.Int(respondentsFlag, 0, "number of respondents")
	flags.Int(minActiveFlag, 0, "minimum number of active elements per task")
	flags.Int(maxActiveFlag, 0, "maximum number of active elements per task")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindValidateFlagsFunc(flags)

	return cmd
}

func runValidate(_ *cobra.Command, _ []string) error {
	file := viper.GetString(fileFlag)
	if file == "" {
		return fmt.Errorf("missing matrix file, specify one with --%s", fileFlag)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read matrix file: %w", err)
	}

	matrix, err := decodeMatrix(raw)
	if err != nil {
		return err
	}

	resp, err := commands.NewValidateMatrixCommand().Execute(context.Background(), &commands.ValidateMatrixRequest{
		Params: iped.Params{
			NumElements:        viper.GetInt(elementsFlag),
			TasksPerRespondent: viper.GetInt(tasksFlag),
			NumRespondents:     viper.GetInt(respondentsFlag),
			MinActive:          viper.GetInt(minActiveFlag),
			MaxActive:          viper.GetInt(maxActiveFlag),
		},
		Matrix: matrix,
	})
	if err != nil {
		return err
	}

	marshalled, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(marshalled))

	if !resp.Valid {
		return fmt.Errorf("matrix violates '%s'", resp.Invariant)
	}

	return nil
}

// decodeMatrix accepts either a bare matrix document or the wrapper the
// generate command and the HTTP API emit.
func decodeMatrix(raw []byte) (*iped.StudyMatrix, error) {
	var wrapped struct {
		Matrix *iped.StudyMatrix `json:"matrix"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Matrix != nil {
		return wrapped.Matrix, nil
	}

	var matrix iped.StudyMatrix
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil, fmt.Errorf("parse matrix file: %w", err)
	}
	return &matrix, nil
}
