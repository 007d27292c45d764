// =============================================================================
// Bulk Order Composer - Catalog Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkorder catalog [--network telecel]
//
// Prints the bundle price list of the session network, smallest bundle first.
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the bundle price list for the session network",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cmd.Context(), newAPIClient())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cat.Len() == 0 {
			fmt.Fprintf(out, "No bundles are priced for %s.\n", cat.Network())
			return nil
		}

		fmt.Fprintf(out, "Network: %s (source: %s)\n\n", cat.Network(), appConfig.Catalog.Source)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CAPACITY\tPRICE (GHS)")
		for _, e := range cat.Entries() {
			fmt.Fprintf(tw, "%dGB\t%s\n", e.CapacityGB, e.UnitPrice.StringFixed(2))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
