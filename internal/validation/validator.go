// =============================================================================
// Bulk Order Composer - Validation Engine
// =============================================================================
//
// This module converts raw entry lines into priced order line items. Every
// line produces exactly one outcome: an OrderLineItem or a ValidationError.
//
// VALIDATION STEPS (per line, in input order):
//   1. Split on whitespace; fewer than 2 tokens -> malformed-format
//   2. Strip non-digits from token 1; not 10..12 digits -> invalid-phone-number
//   3. Phone already seen in this pass -> duplicate-phone-number
//      (the first occurrence wins; the phone is recorded before step 4)
//   4. Token 2 not in the price catalog -> unknown-capacity
//   5. Build the line item with the catalog's network and price snapshot
//
// ERROR HANDLING:
//   - Errors are collected, not returned early, so the user sees every
//     problem in one pass
//   - Each error carries the line number and the original text
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// =============================================================================
// PHONE NUMBER RULES
// =============================================================================

const (
	// MinPhoneDigits is the shortest accepted phone number (local format, 0XXXXXXXXX).
	MinPhoneDigits = 10

	// MaxPhoneDigits is the longest accepted phone number (international, 233XXXXXXXXX).
	MaxPhoneDigits = 12
)

// NormalizePhone strips every character that is not an ASCII digit.
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the outcome of one validation pass.
type ValidationResult struct {
	// IsValid is true if no line was rejected and at least one item was built.
	IsValid bool

	// Items are the accepted line items, in input order.
	Items []types.OrderLineItem

	// Errors are the rejected lines, in input order.
	Errors []*types.ValidationError

	// LinesValidated is the number of lines examined.
	LinesValidated int
}

// ErrorCount returns the number of rejected lines.
func (r *ValidationResult) ErrorCount() int {
	return len(r.Errors)
}

// CountByReason tallies errors per reason.
func (r *ValidationResult) CountByReason() map[types.Reason]int {
	counts := make(map[types.Reason]int)
	for _, e := range r.Errors {
		counts[e.Reason]++
	}
	return counts
}

// =============================================================================
// VALIDATOR
// =============================================================================

// PriceLookup resolves a capacity token to a catalog entry.
type PriceLookup interface {
	Lookup(token string) (types.PriceCatalogEntry, bool)
}

// Validator performs validation passes against a fixed price list.
// A Validator holds no state between passes.
type Validator struct {
	catalog PriceLookup
}

// NewValidator creates a new Validator instance.
func NewValidator(catalog PriceLookup) *Validator {
	return &Validator{catalog: catalog}
}

// Validate runs one pass over lines. It is the main entry point for validation.
func Validate(lines []types.RawEntryLine, catalog PriceLookup) *ValidationResult {
	return NewValidator(catalog).ValidateAll(slices.Values(lines))
}

// ValidateAll validates every line of the sequence and returns a detailed result.
func (v *Validator) ValidateAll(lines iter.Seq[types.RawEntryLine]) *ValidationResult {
	result := &ValidationResult{
		Items:  make([]types.OrderLineItem, 0),
		Errors: make([]*types.ValidationError, 0),
	}

	seen := make(map[string]struct{})

	for line := range lines {
		result.LinesValidated++

		item, verr := v.ValidateLine(line, seen)
		if verr != nil {
			result.Errors = append(result.Errors, verr)
			continue
		}
		result.Items = append(result.Items, item)
	}

	result.IsValid = len(result.Errors) == 0 && len(result.Items) > 0

	return result
}

// ValidateLine validates a single line. seen holds the phone numbers claimed
// earlier in the same pass and is updated in place.
func (v *Validator) ValidateLine(line types.RawEntryLine, seen map[string]struct{}) (types.OrderLineItem, *types.ValidationError) {
	reject := func(reason types.Reason) (types.OrderLineItem, *types.ValidationError) {
		return types.OrderLineItem{}, &types.ValidationError{
			LineNumber: line.LineNumber,
			RawText:    line.RawText,
			Reason:     reason,
		}
	}

	// =========================================================================
	// STEP 1: FORMAT
	// =========================================================================

	tokens := strings.Fields(line.RawText)
	if len(tokens) < 2 {
		return reject(types.ReasonMalformedFormat)
	}

	// =========================================================================
	// STEP 2: PHONE NUMBER
	// =========================================================================

	phone := NormalizePhone(tokens[0])
	if len(phone) < MinPhoneDigits || len(phone) > MaxPhoneDigits {
		return reject(types.ReasonInvalidPhoneNumber)
	}

	// =========================================================================
	// STEP 3: DUPLICATES
	// =========================================================================

	if _, dup := seen[phone]; dup {
		return reject(types.ReasonDuplicatePhoneNumber)
	}
	seen[phone] = struct{}{}

	// =========================================================================
	// STEP 4: CAPACITY
	// =========================================================================

	entry, ok := v.catalog.Lookup(tokens[1])
	if !ok {
		return reject(types.ReasonUnknownCapacity)
	}

	// =========================================================================
	// STEP 5: LINE ITEM
	// =========================================================================

	return types.OrderLineItem{
		PhoneNumber: phone,
		Network:     entry.Network,
		CapacityGB:  entry.CapacityGB,
		UnitPrice:   entry.UnitPrice,
		LineNumber:  line.LineNumber,
	}, nil
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*types.ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation errors to a timestamped log file.
//
// PARAMETERS:
//   - errors: The validation errors to write.
//   - outputDir: The directory for the log file. It is created if missing.
//
// RETURNS:
//   - The path to the log file, or "" when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(errors []*types.ValidationError, outputDir string) (string, error) {
	if len(errors) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", outputDir, err)
	}

	now := time.Now()
	logPath := filepath.Join(outputDir, fmt.Sprintf("validation_errors_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Bulk Order - Validation Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), len(errors))

	for i, e := range errors {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Line:    %d\n"+
			"  Reason:  %s\n"+
			"  Detail:  %s\n"+
			"  Input:   %s\n\n",
			i+1, e.LineNumber, e.Reason, e.Reason.Describe(), e.RawText)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}
