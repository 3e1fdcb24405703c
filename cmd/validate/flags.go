package validate

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mindsurve/taskgen/cmd/util"
)

// bindValidateFlagsFunc binds the cobra cmd flags to the equivalent config value being
// managed by viper. This bridges the config between cobra flags and viper flags.
func bindValidateFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		util.MustBindPFlag(fileFlag, flags.Lookup(fileFlag))
		util.MustBindPFlag(elementsFlag, flags.Lookup(elementsFlag))
		util.MustBindPFlag(tasksFlag, flags.Lookup(tasksFlag))
		util.MustBindPFlag(respondentsFlag, flags.Lookup(respondentsFlag))
		util.MustBindPFlag(minActiveFlag, flags.Lookup(minActiveFlag))
		util.MustBindPFlag(maxActiveFlag, flags.Lookup(maxActiveFlag))
	}
}
