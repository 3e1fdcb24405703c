package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/mindsurve/taskgen/internal/build"
)

// NewVersionCommand returns the command to get the taskgen version
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Return the taskgen version",
		Long:  "Return the taskgen version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}

	return cmd
}

// print out the built version
func version(_ *cobra.Command, _ []string) error {
	log.Printf("taskgen version %s date %s commit id %s ", build.Version, build.Date, build.Commit)
	return nil
}
