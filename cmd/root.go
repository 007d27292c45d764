// =============================================================================
// Bulk Order Composer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (bulkorder)
//   ├── validateCmd (bulkorder validate)
//   ├── submitCmd   (bulkorder submit)
//   ├── catalogCmd  (bulkorder catalog)
//   ├── historyCmd  (bulkorder history)
//   ├── templateCmd (bulkorder template)
//   └── versionCmd  (bulkorder version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --network)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/logging"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// networkFlag overrides the configured session network.
var networkFlag string

// appConfig and logger are initialized before every subcommand runs.
var (
	appConfig *config.Config
	logger    = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bulkorder",
	Short: "Bulk data bundle orders for UnlimitedData GH",
	Long: `bulkorder composes a single order that delivers data bundles to many phone
numbers at once.

Recipients are entered one per line as "<phone number> <capacity in GB>", or
as a PhoneNumber,DataAmount spreadsheet (.csv or .xlsx). Every line is checked
against the current price list before anything is sent, and all problems are
reported together with their line numbers.

Example Usage:
  bulkorder validate --file orders.txt      # Check a batch without sending it
  bulkorder submit --file orders.csv        # Validate and submit a batch
  cat orders.txt | bulkorder submit         # Read recipients from stdin
  bulkorder catalog                         # Show the price list
  bulkorder history --out orders.csv        # Export your order history
  bulkorder template --out template.xlsx    # Write an empty template`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initApp()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"bulkorder.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVarP(
		&networkFlag,
		"network",
		"n",
		"",
		"Session network (mtn, telecel, airteltigo); overrides the config",
	)
}

// initApp loads the configuration and builds the logger.
func initApp() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if networkFlag != "" {
		network, err := types.ParseNetwork(networkFlag)
		if err != nil {
			return fmt.Errorf("--network: %w", err)
		}
		cfg.Network = string(network)
	}

	l, err := logging.New(cfg.Logging.Level, cfg.Logging.File, verbose)
	if err != nil {
		return err
	}

	appConfig = cfg
	logger = l
	logger.Debug("configuration loaded",
		zap.String("config", cfgFile),
		zap.String("api", cfg.API.BaseURL),
		zap.String("network", cfg.Network),
		zap.String("catalog_source", cfg.Catalog.Source),
	)
	return nil
}
