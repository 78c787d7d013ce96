package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is used when the caller does not name the report.
const DefaultFilename = "career_plan.md"

// ErrInvalidFilename is returned when nothing usable remains of a filename
// after reducing it to its base name.
var ErrInvalidFilename = errors.New("invalid filename")

// Writer saves reports into a single directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Write stores content under the base name of filename and returns the
// sanitized name and the absolute path written.
func (w *Writer) Write(filename, content string) (name, absPath string, err error) {
	name, err = SanitizeFilename(filename)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", "", fmt.Errorf("create report dir %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", "", fmt.Errorf("write report '%s': %w", name, err)
	}

	absPath, err = filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	w.logger.Debug("report written", "path", absPath, "bytes", len(content))
	return name, absPath, nil
}

// SanitizeFilename reduces filename to its final path element so a report can
// never be written outside the report directory.
func SanitizeFilename(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("%w: filename must be a non-empty string", ErrInvalidFilename)
	}
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q is empty after sanitization", ErrInvalidFilename, filename)
	}
	return base, nil
}
