package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/aggregate"
	"github.com/unlimiteddatagh/bulkorder/internal/apiclient"
	"github.com/unlimiteddatagh/bulkorder/internal/catalog"
	"github.com/unlimiteddatagh/bulkorder/internal/input"
	"github.com/unlimiteddatagh/bulkorder/internal/session"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/internal/validation"
	"github.com/unlimiteddatagh/bulkorder/pkg/utils"
)

// =============================================================================
// WIRING
// =============================================================================

func newAPIClient() *apiclient.Client {
	return apiclient.New(appConfig.API, apiclient.WithLogger(logger.Named("api")))
}

// newSessionProvider reads the session file first, then the environment.
func newSessionProvider() session.Provider {
	env := session.EnvProvider{TokenVar: appConfig.Session.TokenEnv, UserIDVar: appConfig.Session.UserIDEnv}
	if appConfig.Session.File == "" {
		return env
	}
	return session.Chain{session.FileProvider{Path: appConfig.Session.File}, env}
}

func newFileManager() *utils.FileManager {
	fm := utils.NewFileManager(appConfig.Export.OutputDir, appConfig.Export.FileNameFormat)
	fm.Params = map[string]string{"network": appConfig.Network}
	return fm
}

func loadCatalog(ctx context.Context, client *apiclient.Client) (*catalog.Catalog, error) {
	cat, err := catalog.Load(ctx, appConfig.Catalog, appConfig.SessionNetwork(), client)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", zap.String("network", string(cat.Network())), zap.Int("entries", cat.Len()))
	return cat, nil
}

// readLines reads recipients from path, or from stdin when path is "" or "-".
func readLines(path string) ([]types.RawEntryLine, error) {
	if path == "" || path == input.StdinPath {
		return input.FromReader(os.Stdin)
	}
	return input.FromFile(path, appConfig.Input)
}

// interruptContext returns a context cancelled on SIGINT or SIGTERM.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// OUTPUT
// =============================================================================

// printValidation prints every error and the batch totals.
func printValidation(w io.Writer, result *validation.ValidationResult, summary aggregate.Summary) {
	fmt.Fprintf(w, "Lines checked:   %d\n", result.LinesValidated)
	fmt.Fprintf(w, "Valid items:     %d\n", len(result.Items))
	fmt.Fprintf(w, "Errors:          %d\n", len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, validation.FormatErrors(result.Errors))
	}

	if summary.ItemCount > 0 {
		fmt.Fprintln(w)
		printSummary(w, summary)
	}
}

func printSummary(w io.Writer, summary aggregate.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tITEMS\tSUBTOTAL (GHS)")
	for _, group := range summary.ByNetwork {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", group.Network, group.ItemCount, group.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\n", summary.ItemCount, summary.TotalPrice.StringFixed(2))
	tw.Flush()
}

func printResult(w io.Writer, result types.BatchSubmissionResult) {
	fmt.Fprintf(w, "Submitted:       %d\n", result.TotalLineItems)
	fmt.Fprintf(w, "Successful:      %d\n", result.SuccessfulCount)
	fmt.Fprintf(w, "Failed:          %d\n", result.FailedCount())
	if result.NewAggregateBalance != nil {
		fmt.Fprintf(w, "Wallet balance:  GHS %s\n", result.NewAggregateBalance.StringFixed(2))
	}
	if result.RequestID != "" {
		fmt.Fprintf(w, "Request ID:      %s\n", result.RequestID)
	}

	if result.FailedCount() == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tPHONE\tCAPACITY\tREASON")
	for _, f := range result.FailedLineItems {
		fmt.Fprintf(tw, "%d\t%s\t%dGB\t%s\n", f.Item.LineNumber, f.Item.PhoneNumber, f.Item.CapacityGB, f.Reason)
	}
	tw.Flush()
}
