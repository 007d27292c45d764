// =============================================================================
// Bulk Order Composer - File Manager Utility
// =============================================================================
//
// This module provides the file handling shared by every command that writes
// to disk:
//   - Output directory management
//   - Output file naming
//   - Atomic file creation
//
// NAMING:
//   File names come from a format string with placeholders, so exports from
//   repeated runs never overwrite each other unless the user asks for it.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager places exported files in one output directory.
type FileManager struct {
	// OutputDir is the directory where exported files are placed.
	OutputDir string

	// FileNameFormat is the default name format, see GenerateOutputFileName.
	FileNameFormat string

	// Params are extra placeholder values, such as {"network": "MTN"}.
	Params map[string]string

	// now is the clock used for {timestamp} and {date}.
	now func() time.Time
}

// NewFileManager creates a new FileManager.
func NewFileManager(outputDir, fileNameFormat string) *FileManager {
	if fileNameFormat == "" {
		fileNameFormat = "{kind}_{timestamp}"
	}
	return &FileManager{
		OutputDir:      outputDir,
		FileNameFormat: fileNameFormat,
		now:            time.Now,
	}
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// OutputPath returns a new path in the output directory for a file of the
// given kind (for example "history" or "template") and extension.
func (fm *FileManager) OutputPath(kind, ext string) string {
	params := make(map[string]string, len(fm.Params)+1)
	for k, v := range fm.Params {
		params[k] = v
	}
	params["kind"] = kind

	name := GenerateOutputFileName(fm.FileNameFormat, params, ext, fm.now())
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Date (YYYYMMDD)
//     {time}      - Time (HHMMSS)
//     {kind}      - What the file contains, from params
//   - params: Additional placeholder values.
//   - ext: The extension to enforce, such as ".csv". Empty keeps the format as is.
//   - now: The time used for the time placeholders.
//
// EXAMPLE:
//
//	format: "{kind}_{timestamp}"
//	params: {"kind": "history"}
//	output: "history_20260115_143022.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string, now time.Time) string {
	replacements := []string{
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements = append(replacements, "{uuid}", uuid.NewString())
	}
	for key, value := range params {
		replacements = append(replacements, "{"+key+"}", sanitize(value))
	}

	result := strings.NewReplacer(replacements...).Replace(format)

	if ext != "" && !strings.EqualFold(filepath.Ext(result), ext) {
		result += ext
	}

	return result
}

// sanitize keeps a placeholder value usable inside a file name.
func sanitize(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, value)
}

// =============================================================================
// FILE CREATION
// =============================================================================

// WriteFileAtomic writes a file through a temporary sibling and a rename, so
// readers never see a half-written export.
//
// PARAMETERS:
//   - path: The destination path. Its directory must exist.
//   - write: Writes the content to the temporary file.
func WriteFileAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
