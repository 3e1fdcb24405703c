// Package cmd assembles the taskgen command tree.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	datastoreEngineFlag = "datastore-engine"
	datastoreEngineConf = "datastore.engine"
	datastoreURIFlag    = "datastore-uri"
	datastoreURIConf    = "datastore.uri"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with TASKGEN, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("TASKGEN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for _, path := range []string{"/etc/taskgen", "$HOME/.taskgen", "."} {
		viper.AddConfigPath(path)
	}

	viper.SetDefault(datastoreEngineFlag, "")
	viper.SetDefault(datastoreURIFlag, "")
	err := viper.ReadInConfig()
	if err == nil {
		viper.SetDefault(datastoreEngineFlag, viper.Get(datastoreEngineConf))
		viper.SetDefault(datastoreURIFlag, viper.Get(datastoreURIConf))
	}

	return &cobra.Command{
		Use:   "taskgen",
		Short: "A service for generating balanced task matrices for individual-level conjoint style studies",
		Long: `A service for generating balanced task matrices for individual-level conjoint style studies.

taskgen produces per-respondent task plans in which every respondent sees a deterministic,
balanced subset of the study elements, and exposes them over an HTTP API backed by pluggable storage.`,
	}
}
