package main

import (
	"os"

	"github.com/mindsurve/taskgen/cmd"
	"github.com/mindsurve/taskgen/cmd/generate"
	"github.com/mindsurve/taskgen/cmd/migrate"
	"github.com/mindsurve/taskgen/cmd/plan"
	"github.com/mindsurve/taskgen/cmd/run"
	"github.com/mindsurve/taskgen/cmd/validate"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	runCmd := run.NewRunCommand()
	rootCmd.AddCommand(runCmd)

	migrateCmd := migrate.NewMigrateCommand()
	rootCmd.AddCommand(migrateCmd)

	generateCmd := generate.NewGenerateCommand()
	rootCmd.AddCommand(generateCmd)

	planCmd := plan.NewPlanCommand()
	rootCmd.AddCommand(planCmd)

	validateCmd := validate.NewValidateCommand()
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
