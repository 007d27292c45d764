package input

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

// =============================================================================
// XLSX PARSER
// =============================================================================

// ParseXLSX reads a PhoneNumber,DataAmount workbook into raw entry lines.
//
// PARAMETERS:
//   - r: The workbook content.
//   - sheet: The sheet to read. Empty means the first sheet.
//
// RETURNS:
//   - One RawEntryLine per non-empty data row. LineNumber is the sheet row.
//   - An error if the workbook cannot be opened or the sheet does not exist.
func ParseXLSX(r io.Reader, sheet string) ([]types.RawEntryLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return rowsToLines(rows), nil
}
