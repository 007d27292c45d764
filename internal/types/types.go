// =============================================================================
// Bulk Order Composer - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - input
//   - catalog
//   - validation
//   - aggregate
//   - submission
//   - composer
//
// =============================================================================

package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// NETWORKS
// =============================================================================

// Network identifies a mobile carrier. It partitions the price catalog.
type Network string

const (
	NetworkMTN        Network = "MTN"
	NetworkTelecel    Network = "TELECEL"
	NetworkAirtelTigo Network = "AIRTELTIGO"
)

// Networks lists every supported carrier in display order.
var Networks = []Network{NetworkMTN, NetworkTelecel, NetworkAirtelTigo}

// ParseNetwork resolves a carrier code or one of its common aliases.
//
// ACCEPTED ALIASES:
//   - MTN:        "mtn", "yello"
//   - TELECEL:    "telecel", "vodafone"
//   - AIRTELTIGO: "airteltigo", "at", "at_premium", "tigo"
func ParseNetwork(value string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mtn", "yello":
		return NetworkMTN, nil
	case "telecel", "vodafone":
		return NetworkTelecel, nil
	case "airteltigo", "at", "at_premium", "tigo":
		return NetworkAirtelTigo, nil
	default:
		return "", fmt.Errorf("unknown network %q", value)
	}
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// PriceCatalogEntry is a single priced bundle within a network.
type PriceCatalogEntry struct {
	// CapacityGB is the bundle size in gigabytes. Unique within a network.
	CapacityGB int

	// Network is the carrier this bundle belongs to.
	Network Network

	// UnitPrice is the flat price of one bundle, in cedis.
	UnitPrice decimal.Decimal
}

// =============================================================================
// INPUT TYPES
// =============================================================================

// RawEntryLine is one non-blank line of recipient input.
type RawEntryLine struct {
	// LineNumber is the 1-based position in the input (or the spreadsheet row).
	LineNumber int

	// RawText is the original, untrimmed line.
	RawText string
}

// =============================================================================
// ORDER TYPES
// =============================================================================

// OrderLineItem is a validated, priced recipient.
type OrderLineItem struct {
	// PhoneNumber is digits only, 10 to 12 characters.
	PhoneNumber string

	// Network is resolved from the catalog, never supplied by the user.
	Network Network

	// CapacityGB matches a catalog entry.
	CapacityGB int

	// UnitPrice is a snapshot of the catalog price taken at validation time.
	UnitPrice decimal.Decimal

	// LineNumber is the input line the item came from.
	LineNumber int
}

// Key returns the value used for duplicate detection and reconciliation.
func (i OrderLineItem) Key() string {
	return i.PhoneNumber
}

// =============================================================================
// REASONS
// =============================================================================

// Reason is a machine-readable failure cause.
type Reason string

const (
	ReasonMalformedFormat      Reason = "malformed-format"
	ReasonInvalidPhoneNumber   Reason = "invalid-phone-number"
	ReasonDuplicatePhoneNumber Reason = "duplicate-phone-number"
	ReasonUnknownCapacity      Reason = "unknown-capacity"

	// ReasonNoServerResponse marks an item the server did not mention in its reply.
	ReasonNoServerResponse Reason = "no-server-response-for-item"
)

// Describe returns a human-readable explanation for a validation reason.
func (r Reason) Describe() string {
	switch r {
	case ReasonMalformedFormat:
		return "expected '<phone number> <capacity>'"
	case ReasonInvalidPhoneNumber:
		return "phone number must have 10 to 12 digits"
	case ReasonDuplicatePhoneNumber:
		return "phone number already appears earlier in this batch"
	case ReasonUnknownCapacity:
		return "no bundle with this capacity in the price list"
	case ReasonNoServerResponse:
		return "server did not report an outcome for this item"
	default:
		return string(r)
	}
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError reports why a single input line was rejected.
type ValidationError struct {
	// LineNumber is the 1-based input line.
	LineNumber int

	// RawText is the original line, for display next to the error.
	RawText string

	// Reason is exactly one of the validation reasons.
	Reason Reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s (%s): %q", e.LineNumber, e.Reason, e.Reason.Describe(), e.RawText)
}

// =============================================================================
// SUBMISSION RESULT
// =============================================================================

// FailedLineItem pairs an item with the reason it did not go through.
type FailedLineItem struct {
	Item   OrderLineItem
	Reason string
}

// BatchSubmissionResult is the immutable outcome of one submission attempt.
type BatchSubmissionResult struct {
	// TotalLineItems is the number of items sent.
	TotalLineItems int

	// SuccessfulCount is the number of items the server confirmed.
	SuccessfulCount int

	// SuccessfulLineItems are the confirmed items, in batch order.
	SuccessfulLineItems []SuccessfulLineItem

	// FailedLineItems are all other items, in batch order.
	FailedLineItems []FailedLineItem

	// NewAggregateBalance is the wallet balance echoed by the server, if any.
	NewAggregateBalance *decimal.Decimal

	// RequestID correlates the attempt with server logs.
	RequestID string
}

// SuccessfulLineItem pairs a confirmed item with the server's order reference.
type SuccessfulLineItem struct {
	Item      OrderLineItem
	Reference string
}

// FailedCount returns the number of failed items.
func (r BatchSubmissionResult) FailedCount() int {
	return len(r.FailedLineItems)
}
