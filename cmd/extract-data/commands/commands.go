// Package commands provides the extract-data command line application.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/CoKeFish/ExtractDataRolita/internal/cli"
	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/CoKeFish/ExtractDataRolita/internal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	registry *schema.Registry

	ctx    context.Context
	cancel context.CancelFunc
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	JSONLogs  bool
	Audit     auditConfig
}

type auditConfig struct {
	Format  string
	NoWrite bool
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{registry: schema.New()}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.cmd = &cobra.Command{
		Use:   constants.CmdName,
		Short: "Extract fleet telemetry captures into per vehicle CSV tables",
		Long: `Extract the JSON records of fleet telemetry capture files, either vehicle log blocks or JSON documents,
and append them to one CSV table per vehicle, day and message type.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs)
			slog.Debug("Got app config", "config", a.config)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.bindFlags(map[string]string{
		"verbosity": "verbose",
		"jsonlogs":  "json-logs",
	}, a.cmd.PersistentFlags().Lookup); err != nil {
		return nil, err
	}

	a.installExtract()
	if err := a.installAudit(); err != nil {
		return nil, err
	}
	a.installSchema()
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "write logs as JSON on stderr")
}

// bindFlags binds every configuration key of keys to the flag it names.
func (a *App) bindFlags(keys map[string]string, lookup func(string) *pflag.Flag) error {
	for key, name := range keys {
		if err := a.viper.BindPFlag(key, lookup(name)); err != nil {
			return fmt.Errorf("could not bind flag %q: %v", name, err)
		}
	}
	return nil
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	defer a.cancel()
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// Hup prints all goroutine stack traces and return false to signal you shouldn't quit.
func (a App) Hup() (shouldQuit bool) {
	buf := make([]byte, 1<<16)
	runtime.Stack(buf, true)
	fmt.Printf("%s", buf)
	return false
}

// Quit stops any extraction in progress. The current record is finished first.
func (a *App) Quit() {
	a.cancel()
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}
