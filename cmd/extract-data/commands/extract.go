package commands

import (
	"fmt"
	"log/slog"

	"github.com/CoKeFish/ExtractDataRolita/internal/batch"
	"github.com/spf13/cobra"
)

func (a *App) installExtract() {
	cmd := &cobra.Command{
		Use:   "extract INPUT OUTPUT",
		Short: "Extract the records of a capture file into CSV tables",
		Long: `Extract the records of the capture file INPUT and append them to the CSV tables under OUTPUT.

Files with a .json extension are read as UTF-8 JSON documents, any other file as UTF-16 vehicle log blocks.
A verbatim copy of INPUT is kept in OUTPUT. Records that cannot be decoded or classified are reported and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := batch.New(a.registry, batch.WithLogger(slog.Default()))

			stats, err := d.ProcessFile(a.ctx, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d records: %d written to %d tables, %d unclassified, %d failed\n",
				stats.Records, stats.Written, len(stats.Tables), stats.Unclassified, stats.Failed)
			return nil
		},
	}
	a.cmd.AddCommand(cmd)
}
