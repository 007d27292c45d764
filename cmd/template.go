// =============================================================================
// Bulk Order Composer - Template Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkorder template [--out template.xlsx] [--file orders.txt]
//
// Writes a PhoneNumber,DataAmount spreadsheet that 'submit --file' accepts.
// With --file, the valid recipients of that input are copied in; rejected
// lines are listed and left out.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unlimiteddatagh/bulkorder/internal/composer"
	"github.com/unlimiteddatagh/bulkorder/internal/export"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
)

var (
	templateOut  string
	templateFile string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a recipient spreadsheet template",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTemplate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVarP(&templateOut, "out", "o", "", "Output file (.csv or .xlsx); defaults to the export directory")
	templateCmd.Flags().StringVarP(&templateFile, "file", "f", "", "Prefill with the valid recipients of this input")
}

func runTemplate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	path := templateOut
	if path == "" {
		path = newFileManager().OutputPath("template", export.FormatCSV.Ext())
	}
	if _, err := export.FormatFromPath(path); err != nil {
		return err
	}

	var items []types.OrderLineItem
	if templateFile != "" {
		lines, err := readLines(templateFile)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cmd.Context(), newAPIClient())
		if err != nil {
			return err
		}

		session := composer.New(cat, nil, composer.WithLogger(logger))
		defer session.Close()

		if err := session.ParseLines(lines); err != nil {
			return err
		}
		result, err := session.Validate()
		if err != nil {
			return err
		}
		if len(result.Errors) > 0 {
			fmt.Fprintln(out, validation.FormatErrors(result.Errors))
		}
		items = result.Items
	}

	if err := export.SaveTemplate(path, items); err != nil {
		return err
	}

	fmt.Fprintf(out, "Template with %d recipient(s) written to %s\n", len(items), path)
	return nil
}
