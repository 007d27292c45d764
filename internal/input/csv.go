package input

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// =============================================================================
// CSV PARSER
// =============================================================================

// ParseCSV reads a PhoneNumber,DataAmount CSV file into raw entry lines.
//
// PARAMETERS:
//   - r: The CSV content.
//   - settings: The input settings from the configuration (delimiter).
//
// RETURNS:
//   - One RawEntryLine per non-empty data row. LineNumber is the file line the
//     row starts on.
//   - An error if the CSV itself cannot be read.
//
// ROW HANDLING:
//   - A UTF-8 byte order mark before the first cell is dropped
//   - A leading PhoneNumber,DataAmount header row is skipped (see isHeaderRow)
//   - Cells are trimmed and their inner whitespace removed, so "055 123 4567"
//     becomes a single phone token
//   - Rows with missing cells are kept and later reported as malformed
func ParseCSV(r io.Reader, settings config.InputConfig) ([]types.RawEntryLine, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	var (
		lines      []types.RawEntryLine
		seenRecord bool
	)

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if !seenRecord && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], byteOrderMark)
		}
		if isRowEmpty(record) {
			continue
		}

		lineNumber, _ := csvReader.FieldPos(0)

		if !seenRecord {
			seenRecord = true
			if isHeaderRow(record) {
				continue
			}
		}

		lines = append(lines, types.RawEntryLine{
			LineNumber: lineNumber,
			RawText:    joinCells(record),
		})
	}

	return lines, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.InputConfig) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = ','
		if r, _ := utf8.DecodeRuneInString(settings.Delimiter); r != utf8.RuneError {
			reader.Comma = r
		}
	}

	// Rows with a missing capacity must still reach the validator.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// =============================================================================
// ROW HELPERS
// =============================================================================
// Shared by the CSV and XLSX parsers.

// rowsToLines converts spreadsheet rows to raw entry lines. Row i is reported
// as line i+1.
func rowsToLines(rows [][]string) []types.RawEntryLine {
	var (
		lines      []types.RawEntryLine
		seenRecord bool
	)

	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		if !seenRecord {
			seenRecord = true
			if isHeaderRow(row) {
				continue
			}
		}

		lines = append(lines, types.RawEntryLine{
			LineNumber: i + 1,
			RawText:    joinCells(row),
		})
	}

	return lines
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isHeaderRow reports whether a row is the PhoneNumber,DataAmount header.
// Cells are compared ignoring case and whitespace; any further cells must be
// empty. Only the first non-empty row is ever tested.
func isHeaderRow(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, cell := range row {
		normalized := strings.ToLower(strings.Join(strings.Fields(cell), ""))
		if i >= len(Header) {
			if normalized != "" {
				return false
			}
			continue
		}
		if normalized != strings.ToLower(Header[i]) {
			return false
		}
	}
	return true
}

// joinCells renders a row as whitespace-separated tokens, one per non-empty cell.
func joinCells(row []string) string {
	tokens := make([]string, 0, len(row))
	for _, cell := range row {
		token := strings.Join(strings.Fields(cell), "")
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return strings.Join(tokens, " ")
}
