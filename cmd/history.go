// =============================================================================
// Bulk Order Composer - History Command
// =============================================================================
//
// COMMAND USAGE:
//   bulkorder history [--out orders.xlsx]
//
// Downloads the signed-in user's past orders and writes them as a CSV or
// XLSX file. The format follows the extension of --out.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/export"
)

var historyOut string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Export your order history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyOut, "out", "o", "", "Output file (.csv or .xlsx); defaults to the export directory")
}

func runHistory(cmd *cobra.Command) error {
	provider := newSessionProvider()
	token, err := provider.AuthToken()
	if err != nil {
		return err
	}
	userID, err := provider.UserID()
	if err != nil {
		return err
	}

	path := historyOut
	if path == "" {
		path = newFileManager().OutputPath("history", export.FormatCSV.Ext())
	}
	if _, err := export.FormatFromPath(path); err != nil {
		return err
	}

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	records, err := newAPIClient().ListOrders(ctx, token, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch order history: %w", err)
	}

	if err := export.SaveHistory(path, records); err != nil {
		return err
	}

	logger.Info("order history exported", zap.String("path", path), zap.Int("orders", len(records)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d order(s) to %s\n", len(records), path)
	return nil
}
