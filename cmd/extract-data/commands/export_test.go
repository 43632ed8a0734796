package commands

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type (
	AppConfig   = appConfig
	AuditConfig = auditConfig
)

// Config returns the configuration of the app.
func (a *App) Config() AppConfig {
	return a.config
}

// NewForTests creates a new App writing its configuration to a temporary file, with output captured in out.
func NewForTests(t *testing.T, conf *AppConfig, out io.Writer, args ...string) *App {
	t.Helper()

	p := GenerateTestConfig(t, conf)

	a, err := New()
	require.NoError(t, err, "Setup: failed to create app")
	a.cmd.SetArgs(append(args, "--config", p))
	if out != nil {
		a.cmd.SetOut(out)
	}
	return a
}

// GenerateTestConfig generates a temporary config file for testing.
func GenerateTestConfig(t *testing.T, origConf *AppConfig) string {
	t.Helper()

	var conf appConfig
	if origConf != nil {
		conf = *origConf
	}
	if conf.Audit.Format == "" {
		conf.Audit.Format = "text"
	}

	d, err := yaml.Marshal(conf)
	require.NoError(t, err, "Setup: failed to marshal config for tests")

	confPath := filepath.Join(t.TempDir(), "testconfig.yaml")
	require.NoError(t, os.WriteFile(confPath, d, 0600), "Setup: failed to write config for tests")

	return confPath
}

// SetArgs set some arguments on root command for tests.
func (a *App) SetArgs(args ...string) {
	a.cmd.SetArgs(args)
}

// SetSilenceUsage set the SilenceUsage flag on root command for tests.
func (a *App) SetSilenceUsage(silence bool) {
	a.cmd.SilenceUsage = silence
}
