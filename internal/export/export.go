// =============================================================================
// Bulk Order Composer - Export Module
// =============================================================================
//
// This module renders batches and order history as spreadsheets.
//
// LAYOUTS (column order and header text are fixed, downstream tooling
// depends on them):
//   Template: PhoneNumber,DataAmount
//   History:  Date,Reference,Network,Capacity,Phone,Price,Status
//
// FORMATS:
//   - CSV: UTF-8, comma separated, "\n" line endings
//   - XLSX: one sheet, same header and rows, every cell stored as text
//
// Output is deterministic: the same input always produces the same bytes
// for CSV and the same cell values for XLSX.
//
// =============================================================================

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/unlimiteddatagh/bulkorder/internal/input"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
	"github.com/unlimiteddatagh/bulkorder/pkg/utils"
)

// =============================================================================
// LAYOUTS
// =============================================================================

var (
	// TemplateHeader is the header of a recipient template.
	TemplateHeader = input.Header

	// HistoryHeader is the header of an order history export.
	HistoryHeader = []string{"Date", "Reference", "Network", "Capacity", "Phone", "Price", "Status"}
)

// DateLayout formats the Date column.
const DateLayout = "2006-01-02 15:04:05"

// exampleRow fills an otherwise empty template.
var exampleRow = []string{"0241234567", "1"}

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use .csv or .xlsx)", filepath.Ext(path))
	}
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	return "." + string(f)
}

// =============================================================================
// ROWS
// =============================================================================

// TemplateRows renders items as template rows. With no items the template
// holds a single example row.
func TemplateRows(items []types.OrderLineItem) [][]string {
	if len(items) == 0 {
		return [][]string{exampleRow}
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.PhoneNumber, strconv.Itoa(item.CapacityGB)})
	}
	return rows
}

// HistoryRows renders order records in the history layout.
func HistoryRows(records []types.OrderRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Date.Format(DateLayout),
			r.Reference,
			string(r.Network),
			fmt.Sprintf("%dGB", r.CapacityGB),
			r.PhoneNumber,
			r.Price.StringFixed(2),
			r.Status,
		})
	}
	return rows
}

// ResultRecords turns a submission result into history records dated at,
// confirmed items first, each group in batch order.
func ResultRecords(result types.BatchSubmissionResult, at time.Time) []types.OrderRecord {
	records := make([]types.OrderRecord, 0, result.TotalLineItems)
	for _, s := range result.SuccessfulLineItems {
		records = append(records, record(s.Item, at, s.Reference, "success"))
	}
	for _, f := range result.FailedLineItems {
		records = append(records, record(f.Item, at, "", "failed: "+f.Reason))
	}
	return records
}

func record(item types.OrderLineItem, at time.Time, reference, status string) types.OrderRecord {
	return types.OrderRecord{
		Date:        at,
		Reference:   reference,
		Network:     item.Network,
		CapacityGB:  item.CapacityGB,
		PhoneNumber: item.PhoneNumber,
		Price:       item.UnitPrice,
		Status:      status,
	}
}

// =============================================================================
// WRITERS
// =============================================================================

// WriteCSV writes header and rows as CSV.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}

// WriteXLSX writes header and rows to the first sheet of a new workbook.
func WriteXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "" {
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}
	name := f.GetSheetName(0)

	if err := setRow(f, name, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, name, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// Write renders a table in the given format.
func Write(w io.Writer, format Format, sheet string, header []string, rows [][]string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, header, rows)
	case FormatXLSX:
		return WriteXLSX(w, sheet, header, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// =============================================================================
// FILES
// =============================================================================

// SaveTemplate writes a recipient template to path (.csv or .xlsx).
func SaveTemplate(path string, items []types.OrderLineItem) error {
	return save(path, "Orders", TemplateHeader, TemplateRows(items))
}

// SaveHistory writes order records to path (.csv or .xlsx).
func SaveHistory(path string, records []types.OrderRecord) error {
	return save(path, "History", HistoryHeader, HistoryRows(records))
}

func save(path, sheet string, header []string, rows [][]string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return utils.WriteFileAtomic(path, func(f *os.File) error {
		return Write(f, format, sheet, header, rows)
	})
}
