// Package testutils provides helper functions for testing
package testutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// FlagTestCase describes a cobra flag expected on a command.
type FlagTestCase struct {
	Name           string
	Short          string
	Default        string
	PersistentFlag bool
}

// AssertFlag checks the flag described by tc exists on cmd with the expected shorthand and default.
func AssertFlag(t *testing.T, cmd *cobra.Command, tc FlagTestCase) {
	t.Helper()

	var flag *pflag.Flag
	if tc.PersistentFlag {
		flag = cmd.PersistentFlags().Lookup(tc.Name)
	} else {
		flag = cmd.Flags().Lookup(tc.Name)
	}
	if !assert.NotNil(t, flag, "Flag %q should exist", tc.Name) {
		return
	}
	assert.Equal(t, tc.Short, flag.Shorthand, "Unexpected shorthand for flag %q", tc.Name)
	assert.Equal(t, tc.Default, flag.DefValue, "Unexpected default for flag %q", tc.Name)
}
