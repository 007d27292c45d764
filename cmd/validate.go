// =============================================================================
// Bulk Order Composer - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkorder validate [--file orders.txt] [--error-log]
//
// Checks every recipient line against the price list and reports all errors
// at once. Nothing is sent. Exits non-zero when any line is rejected.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unlimiteddatagh/bulkorder/internal/composer"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
)

var (
	validateFile     string
	validateErrorLog bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a batch of recipients without submitting it",
	Long: `Validate reads recipients from --file (text, .csv or .xlsx) or stdin and
checks each line: phone number format, duplicates within the batch, and bundle
capacity against the price list of the configured network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Recipient file (.txt, .csv, .xlsx); stdin when empty or -")
	validateCmd.Flags().BoolVar(&validateErrorLog, "error-log", false, "Write rejected lines to a log file in the export directory")
}

func runValidate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	lines, err := readLines(validateFile)
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

	printValidation(out, result, session.Summary())

	if len(result.Errors) == 0 {
		return nil
	}

	if validateErrorLog {
		path, err := validation.WriteErrorLog(result.Errors, appConfig.Export.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nError log written to %s\n", path)
	}

	return fmt.Errorf("%d line(s) rejected", len(result.Errors))
}
