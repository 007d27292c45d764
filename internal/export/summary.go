package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unlimiteddatagh/bulkorder/internal/aggregate"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/pkg/utils"
)

// RunSummary describes one submit run for the summary log.
type RunSummary struct {
	StartTime time.Time
	EndTime   time.Time
	Network   types.Network
	InputFile string
	Attempts  int
	Batch     aggregate.Summary
	Result    types.BatchSubmissionResult

	// Err is the final error of the run, if any.
	Err error
}

// WriteSummaryLog writes a human-readable submission summary.
//
// PARAMETERS:
//   - summary: The run to describe.
//   - fm: Decides where the file goes and what it is called.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, fm *utils.FileManager) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}
	path := fm.OutputPath("submission_summary", ".txt")

	err := utils.WriteFileAtomic(path, func(f *os.File) error {
		writer := bufio.NewWriter(f)

		input := summary.InputFile
		if input == "" {
			input = "(stdin)"
		}
		status := "completed"
		if summary.Err != nil {
			status = "failed: " + summary.Err.Error()
		}

		fmt.Fprintf(writer, "Bulk Order - Submission Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n"+
			"  Input:          %s\n"+
			"  Network:        %s\n"+
			"  Attempts:       %d\n"+
			"  Status:         %s\n"+
			"  Request ID:     %s\n\n"+
			"Statistics:\n"+
			"  Line Items:     %d\n"+
			"  Total Price:    GHS %s\n"+
			"  Successful:     %d\n"+
			"  Failed:         %d\n",
			summary.StartTime.Format(DateLayout),
			summary.EndTime.Format(DateLayout),
			summary.EndTime.Sub(summary.StartTime).String(),
			filepath.Base(input),
			summary.Network,
			summary.Attempts,
			status,
			summary.Result.RequestID,
			summary.Batch.ItemCount,
			summary.Batch.TotalPrice.StringFixed(2),
			summary.Result.SuccessfulCount,
			summary.Result.FailedCount())

		if summary.Result.NewAggregateBalance != nil {
			fmt.Fprintf(writer, "  Wallet Balance: GHS %s\n", summary.Result.NewAggregateBalance.StringFixed(2))
		}
		writer.WriteString("\n")

		if len(summary.Result.SuccessfulLineItems) > 0 {
			writer.WriteString("Successful Items:\n")
			writer.WriteString("--------------------------------------------------------------------------------\n")
			for _, s := range summary.Result.SuccessfulLineItems {
				fmt.Fprintf(writer, "  %-14s %4dGB  GHS %8s  %s\n",
					s.Item.PhoneNumber, s.Item.CapacityGB, price(s.Item.UnitPrice), s.Reference)
			}
			writer.WriteString("\n")
		}

		if len(summary.Result.FailedLineItems) > 0 {
			writer.WriteString("Failed Items:\n")
			writer.WriteString("--------------------------------------------------------------------------------\n")
			for _, fl := range summary.Result.FailedLineItems {
				fmt.Fprintf(writer, "  %-14s %4dGB  GHS %8s  %s\n",
					fl.Item.PhoneNumber, fl.Item.CapacityGB, price(fl.Item.UnitPrice), fl.Reason)
			}
			writer.WriteString("\n")
		}

		writer.WriteString("================================================================================\n" +
			"End of Summary\n")

		if err := writer.Flush(); err != nil {
			return fmt.Errorf("failed to flush summary file: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func price(d decimal.Decimal) string {
	return d.StringFixed(2)
}
