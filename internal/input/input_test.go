package input

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/unlimiteddatagh/bulkorder/internal/config"
	"github.com/unlimiteddatagh/bulkorder/internal/types"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []types.RawEntryLine
	}{
		{"empty", "", nil},
		{"only blanks", "\n  \n\t\n", nil},
		{
			name: "two lines",
			raw:  "0551234567 2\n0246783840 5",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "0551234567 2"},
				{LineNumber: 2, RawText: "0246783840 5"},
			},
		},
		{
			name: "blank lines keep numbering",
			raw:  "\n0551234567 2\n\n   \n0246783840 5\n",
			expected: []types.RawEntryLine{
				{LineNumber: 2, RawText: "0551234567 2"},
				{LineNumber: 5, RawText: "0246783840 5"},
			},
		},
		{
			name: "crlf and cr",
			raw:  "a 1\r\nb 2\rc 3",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "a 1"},
				{LineNumber: 2, RawText: "b 2"},
				{LineNumber: 3, RawText: "c 3"},
			},
		},
		{
			name: "malformed lines are preserved untrimmed",
			raw:  "  0551234567  \nx",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "  0551234567  "},
				{LineNumber: 2, RawText: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Collect(Lines(tt.raw)))
		})
	}
}

func TestLinesIsRestartable(t *testing.T) {
	seq := Lines("0551234567 2\n\n0246783840 5")

	first := Collect(seq)
	second := Collect(seq)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestLinesStopsEarly(t *testing.T) {
	count := 0
	for range Lines("a 1\nb 2\nc 3") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestParseCSV(t *testing.T) {
	data := "PhoneNumber,DataAmount\n0551234567,2\n\n055 123 4568, 5\n0246783840,\n"

	lines, err := ParseCSV(strings.NewReader(data), config.InputConfig{Delimiter: ","})
	require.NoError(t, err)

	assert.Equal(t, []types.RawEntryLine{
		{LineNumber: 2, RawText: "0551234567 2"},
		{LineNumber: 4, RawText: "0551234568 5"},
		{LineNumber: 5, RawText: "0246783840"},
	}, lines)
}

func TestParseCSVWithoutHeader(t *testing.T) {
	data := "0551234567;2\n0246783840;5\n"

	lines, err := ParseCSV(strings.NewReader(data), config.InputConfig{Delimiter: "semicolon"})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, types.RawEntryLine{LineNumber: 1, RawText: "0551234567 2"}, lines[0])
}

func TestParseCSVKeepsNonNumericFirstRow(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected []types.RawEntryLine
	}{
		{
			name: "placeholder phone",
			data: "N/A,2\n0551234567,5\n",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "N/A 2"},
				{LineNumber: 2, RawText: "0551234567 5"},
			},
		},
		{
			name: "letters only",
			data: "abc,5\n",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "abc 5"},
			},
		},
		{
			name: "header with extra column is data",
			data: "PhoneNumber,DataAmount,Note\n",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "PhoneNumber DataAmount Note"},
			},
		},
		{
			name: "header in other case and spacing",
			data: " phone number ,DATAAMOUNT\n0551234567,2\n",
			expected: []types.RawEntryLine{
				{LineNumber: 2, RawText: "0551234567 2"},
			},
		},
		{
			name: "header behind byte order mark",
			data: "\ufeffPhoneNumber,DataAmount\n0551234567,2\n",
			expected: []types.RawEntryLine{
				{LineNumber: 2, RawText: "0551234567 2"},
			},
		},
		{
			name: "byte order mark before data",
			data: "\ufeff0551234567,2\n",
			expected: []types.RawEntryLine{
				{LineNumber: 1, RawText: "0551234567 2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := ParseCSV(strings.NewReader(tt.data), config.InputConfig{Delimiter: ","})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lines)
		})
	}
}

func TestParseCSVMultiByteDelimiter(t *testing.T) {
	lines, err := ParseCSV(strings.NewReader("0551234567¦2\n0246783840¦5\n"), config.InputConfig{Delimiter: "¦"})
	require.NoError(t, err)
	assert.Equal(t, []types.RawEntryLine{
		{LineNumber: 1, RawText: "0551234567 2"},
		{LineNumber: 2, RawText: "0246783840 5"},
	}, lines)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"PhoneNumber", "DataAmount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"0551234567", "2"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"0246783840", "5"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	lines, err := ParseXLSX(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, []types.RawEntryLine{
		{LineNumber: 2, RawText: "0551234567 2"},
		{LineNumber: 4, RawText: "0246783840 5"},
	}, lines)
}

func TestParseXLSXKeepsNonNumericFirstRow(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"N/A", "2"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"0551234567", "5"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	lines, err := ParseXLSX(&buf, "")
	require.NoError(t, err)
	assert.Equal(t, []types.RawEntryLine{
		{LineNumber: 1, RawText: "N/A 2"},
		{LineNumber: 2, RawText: "0551234567 5"},
	}, lines)
}

func TestParseXLSXUnknownSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ParseXLSX(&buf, "Orders")
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "orders.txt")
	require.NoError(t, os.WriteFile(txt, []byte("0551234567 2\n"), 0o644))

	csvPath := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("PhoneNumber,DataAmount\n0551234567,2\n"), 0o644))

	for _, path := range []string{txt, csvPath} {
		lines, err := FromFile(path, config.InputConfig{Delimiter: ","})
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "0551234567 2", lines[0].RawText)
	}

	_, err := FromFile(filepath.Join(dir, "missing.txt"), config.InputConfig{})
	assert.Error(t, err)
}
