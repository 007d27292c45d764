// =============================================================================
// Bulk Order Composer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the UnlimitedData GH bulk order CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   bulkorder validate      - Check a batch of recipients without sending it
//   bulkorder submit        - Validate and submit a bulk order
//   bulkorder catalog       - Show the bundle price list
//   bulkorder history       - Export past orders
//   bulkorder template      - Write a recipient spreadsheet template
//   bulkorder version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Composer, validation, pricing, API client, exports
//   - pkg/           : Shared file helpers
//
// =============================================================================

package main

import (
	"github.com/unlimiteddatagh/bulkorder/cmd"
)

func main() {
	cmd.Execute()
}
