package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ticketbridge/internal/mapping"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <mapping-file>",
		Short: "Validate a mapping workbook or YAML file without syncing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := mapping.Load(args[0])
			if err != nil {
				return err
			}

			forward := len(set.FieldsFor(mapping.SourceToTarget))
			reverse := len(set.FieldsFor(mapping.TargetToSource))
			fmt.Fprintf(cmd.OutOrStdout(), "mapping file is valid\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  forward field mappings: %d\n", forward)
			fmt.Fprintf(cmd.OutOrStdout(), "  reverse field mappings: %d\n", reverse)
			fmt.Fprintf(cmd.OutOrStdout(), "  repo fields:            %d\n", len(set.RepoFields()))
			fmt.Fprintf(cmd.OutOrStdout(), "  product fields:         %d\n", len(set.ProductFields()))
			fmt.Fprintf(cmd.OutOrStdout(), "  fetch query:            %q\n", set.FetchQuery())
			return nil
		},
	}
}
