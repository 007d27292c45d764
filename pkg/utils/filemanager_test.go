package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOutputFileName(t *testing.T) {
	now := time.Date(2026, 1, 15, 14, 30, 22, 0, time.UTC)

	tests := []struct {
		name     string
		format   string
		params   map[string]string
		ext      string
		expected string
	}{
		{"kind and timestamp", "{kind}_{timestamp}", map[string]string{"kind": "history"}, ".csv", "history_20260115_143022.csv"},
		{"date and time", "orders-{date}-{time}", nil, ".xlsx", "orders-20260115-143022.xlsx"},
		{"extension already present", "template.CSV", nil, ".csv", "template.CSV"},
		{"no extension enforced", "{kind}", map[string]string{"kind": "log"}, "", "log"},
		{"unsafe kind", "{kind}", map[string]string{"kind": "a/b:c"}, ".csv", "a_b_c.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateOutputFileName(tt.format, tt.params, tt.ext, now))
		})
	}
}

func TestGenerateOutputFileNameUUID(t *testing.T) {
	now := time.Now()
	a := GenerateOutputFileName("{uuid}", nil, ".csv", now)
	b := GenerateOutputFileName("{uuid}", nil, ".csv", now)

	assert.Len(t, a, 36+len(".csv"))
	assert.NotEqual(t, a, b)
}

func TestFileManagerOutputPath(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(filepath.Join(dir, "exports"), "")
	fm.now = func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }

	require.NoError(t, fm.EnsureDirectories())
	assert.True(t, FileExists(fm.OutputDir))

	assert.Equal(t, filepath.Join(dir, "exports", "template_20260201_080000.csv"), fm.OutputPath("template", ".csv"))

	fm.FileNameFormat = "{network}-{kind}"
	fm.Params = map[string]string{"network": "MTN", "kind": "ignored"}
	assert.Equal(t, filepath.Join(dir, "exports", "MTN-history.xlsx"), fm.OutputPath("history", ".xlsx"))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("hello")
		return err
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	err = WriteFileAtomic(filepath.Join(dir, "broken.txt"), func(*os.File) error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.False(t, FileExists(filepath.Join(dir, "broken.txt")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
