// Package util carries helpers shared by the cobra commands.
package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// MustBindPFlag binds a viper config key to a cobra flag and panics when the
// binding is rejected.
func MustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic("failed to bind pflag: " + err.Error())
	}
}

// MustBindEnv binds a viper config key to one or more environment variables
// and panics when the binding is rejected.
func MustBindEnv(input ...string) {
	if err := viper.BindEnv(input...); err != nil {
		panic("failed to bind env key: " + err.Error())
	}
}

// PrepareTempConfigDir points HOME at a fresh temp dir so config resolution
// runs against a known-empty ~/.taskgen, and returns that directory.
func PrepareTempConfigDir(t *testing.T) string {
	_, err := os.Stat("/etc/taskgen/config.yaml")
	require.ErrorIs(t, err, os.ErrNotExist, "a real config at /etc/taskgen/config.yaml would leak into this test")

	homedir := t.TempDir()
	t.Setenv("HOME", homedir)

	confdir := filepath.Join(homedir, ".taskgen")
	require.NoError(t, os.Mkdir(confdir, 0750))

	return confdir
}

// PrepareTempConfigFile writes config as the config.yaml the command under
// test will discover.
func PrepareTempConfigFile(t *testing.T, config string) {
	confdir := PrepareTempConfigDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(confdir, "config.yaml"), []byte(config), 0o600))
}
