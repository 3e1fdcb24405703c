package plan

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mindsurve/taskgen/cmd/util"
)

// bindPlanFlagsFunc binds the cobra cmd flags to the equivalent config value being
// managed by viper. This bridges the config between cobra flags and viper flags.
func bindPlanFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		util.MustBindPFlag(elementsFlag, flags.Lookup(elementsFlag))
		util.MustBindPFlag(minActiveFlag, flags.Lookup(minActiveFlag))
		util.MustBindPFlag(maxActiveFlag, flags.Lookup(maxActiveFlag))
	}
}
