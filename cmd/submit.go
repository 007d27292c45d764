// =============================================================================
// Bulk Order Composer - Submit Command
// =============================================================================
//
// This file defines the 'submit' command, the main command of the tool. It
// runs one composer session from raw input to a reconciled result.
//
// COMMAND USAGE:
//   bulkorder submit [flags]
//
// FLAGS:
//   --file, -f   : Recipient file (.txt, .csv, .xlsx); stdin when empty or -
//   --retries    : Extra attempts after a failed submission (same batch and key)
//   --retry-wait : Pause between attempts
//   --export     : Also export the result as "csv" or "xlsx"
//   --dry-run    : Validate and price the batch, then stop
//
// SUBMISSION PIPELINE:
//   1. Read the recipients
//   2. Load the price list for the configured network
//   3. Parse and validate; stop with every error listed if any line is rejected
//   4. Submit once, and again on failure up to --retries times
//   5. Print the result, write the summary log and the optional export
//
// INTERRUPTS:
//   Ctrl-C while waiting for the server closes the session. The batch may
//   still be processed server-side; check 'bulkorder history' before retrying.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/composer"
	"github.com/unlimiteddatagh/bulkorder/internal/export"
	"github.com/unlimiteddatagh/bulkorder/internal/submission"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	submitFile      string
	submitRetries   int
	submitRetryWait time.Duration
	submitExport    string
	submitDryRun    bool
)

// =============================================================================
// SUBMIT COMMAND DEFINITION
// =============================================================================

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Validate and submit a bulk order",
	Long: `Submit validates a batch of recipients and, when every line is valid, sends
it as one bulk order.

Each recipient gets its own outcome. Recipients the server does not mention
in its reply are reported as failed, never assumed delivered.

If the whole submission fails (network error, server error) the batch is kept
and retried up to --retries times with the same idempotency key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "Recipient file (.txt, .csv, .xlsx); stdin when empty or -")
	submitCmd.Flags().IntVar(&submitRetries, "retries", 0, "Extra attempts after a failed submission")
	submitCmd.Flags().DurationVar(&submitRetryWait, "retry-wait", 3*time.Second, "Pause between attempts")
	submitCmd.Flags().StringVar(&submitExport, "export", "", "Export the result as csv or xlsx")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Validate and price the batch without submitting")
}

// =============================================================================
// MAIN SUBMIT FUNCTION
// =============================================================================

func runSubmit(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	start := time.Now()

	if submitRetries < 0 {
		return fmt.Errorf("--retries must not be negative")
	}
	var exportFormat export.Format
	if submitExport != "" {
		f, err := export.FormatFromPath("." + submitExport)
		if err != nil {
			return err
		}
		exportFormat = f
	}

	ctx, stop := interruptContext(cmd.Context())
	defer stop()

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	lines, err := readLines(submitFile)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: PRICE LIST
	// =========================================================================

	client := newAPIClient()
	cat, err := loadCatalog(ctx, client)
	if err != nil {
		return err
	}

	coordinator := submission.NewCoordinator(client, newSessionProvider(), logger.Named("submission"))
	session := composer.New(cat, coordinator, composer.WithLogger(logger.Named("composer")))
	defer session.Close()

	// A torn-down session drops any late reply.
	go func() {
		<-ctx.Done()
		session.Close()
	}()

	// =========================================================================
	// STEP 3: PARSE AND VALIDATE
	// =========================================================================

	if err := session.ParseLines(lines); err != nil {
		return err
	}
	result, err := session.Validate()
	if err != nil {
		return err
	}

	batch := session.Summary()
	printValidation(out, result, batch)

	if len(result.Errors) > 0 {
		path, err := validation.WriteErrorLog(result.Errors, appConfig.Export.OutputDir)
		if err != nil {
			logger.Warn("failed to write error log", zap.Error(err))
		} else {
			fmt.Fprintf(out, "\nError log written to %s\n", path)
		}
		return fmt.Errorf("%d line(s) rejected, nothing was submitted", len(result.Errors))
	}
	if batch.ItemCount == 0 {
		return fmt.Errorf("no recipients to submit")
	}
	if submitDryRun {
		fmt.Fprintln(out, "\nDry run: nothing was submitted.")
		return nil
	}

	// =========================================================================
	// STEP 4: SUBMIT WITH CALLER-LEVEL RETRIES
	// =========================================================================

	fmt.Fprintf(out, "\nSubmitting %d item(s)...\n", batch.ItemCount)

	res, attempts, submitErr := submitWithRetries(ctx, session, submitRetries, submitRetryWait)
	if errors.Is(submitErr, composer.ErrClosed) {
		return fmt.Errorf("interrupted while waiting for the server; the order may still be processed, check 'bulkorder history' before retrying")
	}
	if errors.Is(submitErr, submission.ErrPreconditionFailed) {
		return submitErr
	}

	// =========================================================================
	// STEP 5: REPORT
	// =========================================================================

	fmt.Fprintln(out)
	printResult(out, res)

	fm := newFileManager()
	if path, err := export.WriteSummaryLog(export.RunSummary{
		StartTime: start,
		EndTime:   time.Now(),
		Network:   appConfig.SessionNetwork(),
		InputFile: submitFile,
		Attempts:  attempts,
		Batch:     batch,
		Result:    res,
		Err:       submitErr,
	}, fm); err != nil {
		logger.Warn("failed to write summary log", zap.Error(err))
	} else {
		fmt.Fprintf(out, "\nSummary written to %s\n", path)
	}

	if exportFormat != "" {
		path := fm.OutputPath("submission", exportFormat.Ext())
		if err := export.SaveHistory(path, export.ResultRecords(res, time.Now())); err != nil {
			return fmt.Errorf("failed to export result: %w", err)
		}
		fmt.Fprintf(out, "Result exported to %s\n", path)
	}

	if submitErr != nil {
		return submitErr
	}
	if res.FailedCount() > 0 {
		return fmt.Errorf("%d of %d item(s) failed", res.FailedCount(), res.TotalLineItems)
	}
	return nil
}

// submitWithRetries submits the session's batch, retrying whole-batch
// failures up to retries times. The composer keeps the batch and its
// idempotency key between attempts.
func submitWithRetries(ctx context.Context, session *composer.Composer, retries int, wait time.Duration) (types.BatchSubmissionResult, int, error) {
	var (
		res types.BatchSubmissionResult
		err error
	)

	for attempt := 1; ; attempt++ {
		res, err = session.Submit(ctx)
		if err == nil || !errors.Is(err, submission.ErrSubmissionFailed) || attempt > retries {
			return res, attempt, err
		}

		logger.Warn("submission failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("retries", retries),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return res, attempt, err
		case <-time.After(wait):
		}
	}
}
