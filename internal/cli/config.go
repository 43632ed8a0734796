// Package cli provides utility functions for command line interface applications.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// InitViperConfig loads the configuration for cmdName into vip.
//
// An explicit --config flag wins. Otherwise a file named after the command is looked up in the
// working directory, the system configuration directories, the user configuration directory and
// next to the executable. A missing file is not an error. Environment variables prefixed with the
// upper-cased command name override file values, with "_" separating nested keys.
func InitViperConfig(cmdName string, cmd *cobra.Command, vip *viper.Viper) error {
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(cmdName)
		vip.AddConfigPath(".")

		if runtime.GOOS == "windows" {
			vip.AddConfigPath("C:\\ProgramData\\" + cmdName)
		} else {
			vip.AddConfigPath("/etc/" + cmdName)
		}

		if dir, err := os.UserConfigDir(); err == nil {
			vip.AddConfigPath(filepath.Join(dir, cmdName))
		}

		if binPath, err := os.Executable(); err != nil {
			slog.Warn("Failed to get current executable path, not adding it as a config dir", "error", err)
		} else {
			vip.AddConfigPath(filepath.Dir(binPath))
		}
	}
	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return fmt.Errorf("invalid configuration file: %w", err)
		}
		slog.Debug("No configuration file, using defaults, env variables and flags")
	} else {
		slog.Info("Using configuration file", "file", vip.ConfigFileUsed())
	}

	vip.SetEnvPrefix(cmdName)
	vip.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every prefixed
	// variable is bound explicitly to make it visible to Unmarshal.
	// More context on https://github.com/spf13/viper/pull/1429.
	prefix := envPrefix(cmdName)
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, prefix) {
			continue
		}

		s := strings.SplitN(e, "=", 2)
		k := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s[0], prefix)), "_", ".")
		if err := vip.BindEnv(k, s[0]); err != nil {
			return fmt.Errorf("could not bind environment variable: %w", err)
		}
	}

	return nil
}

// InstallConfigFlag adds a config flag to the command.
func InstallConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().String("config", "", "use a specific configuration file")
}

func envPrefix(cmdName string) string {
	return strings.ToUpper(strings.ReplaceAll(cmdName, "-", "_")) + "_"
}
