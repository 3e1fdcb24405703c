// Package plan contains the command to print the recommended design for a study.
package plan

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mindsurve/taskgen/pkg/server/commands"
)

const (
	elementsFlag  = "elements"
	minActiveFlag = "min-active"
	maxActiveFlag = "max-active"
)

func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the recommended task count and exposure plan for an element count",
		RunE:  runPlan,
		Args:  cobra.NoArgs,
	}

	flags := cmd.Flags()
	flags.Int(elementsFlag, 0, "number of elements in the study")
	flags.Int(minActiveFlag, 0, "minimum number of active elements per task (0 picks the default)")
	flags.Int(maxActiveFlag, 0, "maximum number of active elements per task (0 picks the default)")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindPlanFlagsFunc(flags)

	return cmd
}

func runPlan(_ *cobra.Command, _ []string) error {
	resp, err := commands.NewPlanDesignQuery().Execute(context.Background(), &commands.PlanDesignRequest{
		NumElements: viper.GetInt(elementsFlag),
		MinActive:   viper.GetInt(minActiveFlag),
		MaxActive:   viper.GetInt(maxActiveFlag),
	})
	if err != nil {
		return err
	}

	marshalled, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(marshalled))

	return nil
}
