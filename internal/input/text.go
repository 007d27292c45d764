// =============================================================================
// Bulk Order Composer - Input Parser
// =============================================================================
//
// This module turns recipient input into RawEntryLine values. Three sources are
// supported and all produce the same shape, so the validator never needs to
// know where a line came from:
//   - Free text pasted by the user, one "<phone> <capacity>" per line
//   - CSV files with PhoneNumber,DataAmount columns
//   - XLSX files with the same columns
//
// PARSING RULES:
//   - Line numbers are 1-based positions in the input (or spreadsheet rows)
//   - Blank lines are dropped
//   - Malformed lines are kept so the validator can report them by line number
//
// =============================================================================

package input

import (
	"iter"
	"slices"
	"strings"

	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// Lines returns a lazy sequence over the non-blank lines of raw.
//
// The sequence holds no state between iterations, so ranging over it twice
// yields the same lines both times. Line breaks may be "\n", "\r\n" or "\r".
func Lines(raw string) iter.Seq[types.RawEntryLine] {
	return func(yield func(types.RawEntryLine) bool) {
		lineNumber := 0
		rest := raw

		for len(rest) > 0 {
			var line string
			line, rest = cutLine(rest)
			lineNumber++

			if isBlank(line) {
				continue
			}

			if !yield(types.RawEntryLine{LineNumber: lineNumber, RawText: line}) {
				return
			}
		}
	}
}

// Collect drains a line sequence into a slice.
func Collect(lines iter.Seq[types.RawEntryLine]) []types.RawEntryLine {
	return slices.Collect(lines)
}

// cutLine splits s at the first line break and returns the line and the rest.
func cutLine(s string) (string, string) {
	i := strings.IndexAny(s, "\r\n")
	if i < 0 {
		return s, ""
	}

	line := s[:i]
	if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
		return line, s[i+2:]
	}
	return line, s[i+1:]
}

// isBlank reports whether a line contains only whitespace.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
