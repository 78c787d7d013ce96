package resume

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when no page of the document yields any text.
var ErrNoText = errors.New("no text could be extracted")

// Reader extracts plain text from PDF resumes.
type Reader struct {
	logger *slog.Logger
}

// NewReader returns a Reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read returns the text of every page of the PDF at path, pages separated by
// a blank line. A page without extractable text is represented by a
// "[Page N: No text extracted]" marker.
func (r *Reader) Read(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist at path: %s", path)
		}
		return "", fmt.Errorf("stat resume %s: %w", path, err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", fmt.Errorf("file is not a PDF format, expected .pdf file, got: %s", path)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a file: %s", path)
	}

	f, doc, err := openPDF(path)
	if err != nil {
		return "", fmt.Errorf("open PDF file '%s': %w", path, err)
	}
	defer f.Close()

	text, err := joinPages(doc.NumPage(), func(i int) (string, error) {
		return pageText(doc, i)
	})
	if err != nil {
		return "", fmt.Errorf("read PDF '%s': %w", path, err)
	}

	r.logger.Debug("resume extracted", "path", path, "pages", doc.NumPage(), "chars", len([]rune(text)))
	return text, nil
}

// openPDF opens the file and parses its trailer. The file is closed on any
// failure, including parser panics on malformed input.
func openPDF(path string) (*os.File, *pdf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	doc, err := parsePDF(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, doc, nil
}

func parsePDF(r io.ReaderAt, size int64) (doc *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", p)
		}
	}()
	return pdf.NewReader(r, size)
}

func pageText(doc *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("malformed page: %v", p)
		}
	}()
	page := doc.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// joinPages collects the text of pages 1..n. A page that fails aborts the
// whole read; a page with no text gets a marker.
func joinPages(n int, text func(i int) (string, error)) (string, error) {
	parts := make([]string, 0, n)
	extracted := false
	for i := 1; i <= n; i++ {
		t, err := text(i)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		if strings.TrimSpace(t) == "" {
			parts = append(parts, fmt.Sprintf("[Page %d: No text extracted]", i))
			continue
		}
		extracted = true
		parts = append(parts, t)
	}
	if !extracted {
		return "", ErrNoText
	}
	return strings.Join(parts, "\n\n"), nil
}
