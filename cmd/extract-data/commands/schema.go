package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errUnknownCode = errors.New("unknown message type")

func (a *App) installSchema() {
	cmd := &cobra.Command{
		Use:   "schema [CODE...]",
		Short: "Print the CSV header of message types",
		Long:  "Print the CSV header written for every given message type code, or for every known type when none is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := args
			if len(codes) == 0 {
				codes = a.registry.Codes()
			}

			var b strings.Builder
			for _, code := range codes {
				columns, ok := a.registry.SchemaFor(code)
				if !ok {
					return fmt.Errorf("%w: %q", errUnknownCode, code)
				}
				fmt.Fprintf(&b, "%s: %s\n", code, strings.Join(columns, ","))
			}

			_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
	a.cmd.AddCommand(cmd)
}
