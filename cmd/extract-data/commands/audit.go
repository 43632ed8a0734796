package commands

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/CoKeFish/ExtractDataRolita/internal/audit"
	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/spf13/cobra"
)

func (a *App) installAudit() error {
	cmd := &cobra.Command{
		Use:   "audit ROOT",
		Short: "Summarize the daily capture folders of a directory",
		Long: `Summarize the capture folders directly under ROOT, named after a bus number and a day.

The summary lists the hours covered per folder and per bus, the folders with missing or misplaced captures,
and the days of the week each bus was recorded on. It is printed and written into ROOT.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(audit.Formats, a.config.Audit.Format) {
				// Invalid flag values are reported as usage errors.
				a.cmd.SilenceUsage = false
				return fmt.Errorf("invalid format %q, expected one of %s", a.config.Audit.Format,
					strings.Join(audit.Formats, ", "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := audit.Scan(args[0])
			if err != nil {
				return err
			}

			if err := s.Encode(cmd.OutOrStdout(), a.config.Audit.Format); err != nil {
				return err
			}

			if a.config.Audit.NoWrite {
				return nil
			}
			p, err := audit.Write(args[0], s, a.config.Audit.Format)
			if err != nil {
				return err
			}
			slog.Info("Wrote audit summary", "path", p)
			return nil
		},
	}

	cmd.Flags().StringVarP(&a.config.Audit.Format, "format", "f", constants.DefaultAuditFormat,
		"summary format, one of "+strings.Join(audit.Formats, ", "))
	cmd.Flags().BoolVar(&a.config.Audit.NoWrite, "no-write", false, "print the summary without writing it into ROOT")

	if err := a.bindFlags(map[string]string{
		"audit.format":  "format",
		"audit.nowrite": "no-write",
	}, cmd.Flags().Lookup); err != nil {
		return err
	}

	a.cmd.AddCommand(cmd)
	return nil
}
