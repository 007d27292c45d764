package input

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// StdinPath selects standard input as a free-text source.
const StdinPath = "-"

// byteOrderMark is stripped from the start of CSV files saved by spreadsheet tools.
const byteOrderMark = "\ufeff"

// Header is the column layout of a recipient spreadsheet.
var Header = []string{"PhoneNumber", "DataAmount"}

// FromFile reads recipient input from a file, picking the parser by extension.
//
// SUPPORTED EXTENSIONS:
//   - .csv:  ParseCSV
//   - .xlsx: ParseXLSX
//   - anything else (including "-" for stdin): free text, see Lines
func FromFile(path string, settings config.InputConfig) ([]types.RawEntryLine, error) {
	if path == StdinPath {
		return FromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(file, settings)
	case ".xlsx":
		return ParseXLSX(file, settings.Sheet)
	default:
		return FromReader(file)
	}
}

// FromReader reads free text from r.
func FromReader(r io.Reader) ([]types.RawEntryLine, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Collect(Lines(string(data))), nil
}
