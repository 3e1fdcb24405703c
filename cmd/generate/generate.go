// Package generate contains the command to generate a task matrix without a running server.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/server/commands"
)

const (
	elementsFlag       = "elements"
	tasksFlag          = "tasks"
	respondentsFlag    = "respondents"
	minActiveFlag      = "min-active"
	maxActiveFlag      = "max-active"
	seedFlag           = "seed"
	tolerancePctFlag   = "tolerance-pct"
	toleranceSlackFlag = "tolerance-slack"
	fileFlag           = "file"
	outputFlag         = "output"
)

func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a task matrix and write it as JSON to stdout or a file",
		Long:  "Generate a task matrix for the given study parameters without a running server.\nThe output is the same JSON document the '/api/generate' endpoint returns.",
		RunE:  runGenerate,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.Int(elementsFlag, 0, "number of elements in the study")
	flags.Int(tasksFlag, 0, "number of tasks each respondent completes")
	flags.Int(respondentsFlag, 0, "number of respondents")
	flags.Int(minActiveFlag, 0, "minimum number of active elements per task")
	flags.Int(maxActiveFlag, 0, "maximum number of active elements per task")
	flags.Int64(seedFlag, 0, "seed for reproducible output (random when unset)")
	flags.Float64(tolerancePctFlag, iped.DefaultTolerance.Pct, "allowed exposure deviation as a fraction of the mean exposure")
	flags.Float64(toleranceSlackFlag, iped.DefaultTolerance.Slack, "allowed absolute exposure deviation")
	flags.String(fileFlag, "", "read the study parameters from a YAML or JSON file instead of flags")
	flags.String(outputFlag, "", "write the result to this file instead of stdout")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindGenerateFlagsFunc(flags)

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	params := iped.Params{
		NumElements:        viper.GetInt(elementsFlag),
		TasksPerRespondent: viper.GetInt(tasksFlag),
		NumRespondents:     viper.GetInt(respondentsFlag),
		MinActive:          viper.GetInt(minActiveFlag),
		MaxActive:          viper.GetInt(maxActiveFlag),
	}

	if file := viper.GetString(fileFlag); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read params file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &params); err != nil {
			return fmt.Errorf("parse params file: %w", err)
		}
	}

	req := &commands.GenerateTasksRequest{Params: params}
	if cmd.Flags().Changed(seedFlag) {
		seed := viper.GetInt64(seedFlag)
		req.Seed = &seed
	}
	if cmd.Flags().Changed(tolerancePctFlag) || cmd.Flags().Changed(toleranceSlackFlag) {
		req.Tolerance = &iped.Tolerance{
			Pct:   viper.GetFloat64(tolerancePctFlag),
			Slack: viper.GetFloat64(toleranceSlackFlag),
		}
	}

	generator, err := iped.NewGenerator()
	if err != nil {
		return err
	}
	defer generator.Close()

	resp, err := commands.NewGenerateTasksCommand(generator).Execute(context.Background(), req)
	if err != nil {
		return err
	}

	marshalled, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if output := viper.GetString(outputFlag); output != "" {
		if err := os.WriteFile(output, append(marshalled, '\n'), 0o600); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		return nil
	}

	fmt.Println(string(marshalled))

	return nil
}
