package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-api/internal/domain"
)

const (
	FormatText = "txt"
	FormatPDF  = "pdf"
)

func ValidFormat(f string) bool { return f == FormatText || f == FormatPDF }

// Exporter writes one artifact file per generated course into a flat
// directory, named <id>.<format>. Artifacts are immutable once written and
// retained indefinitely.
type Exporter struct {
	dir string
}

func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Write renders content in the requested format and returns the new artifact
// id.
func (e *Exporter) Write(title, content, format string) (string, error) {
	if !ValidFormat(format) {
		return "", domain.ErrValidation
	}
	id := uuid.NewString()
	path := filepath.Join(e.dir, id+"."+format)

	switch format {
	case FormatText:
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write text artifact: %w", err)
		}
	case FormatPDF:
		if err := writePDF(path, title, content); err != nil {
			return "", fmt.Errorf("write pdf artifact: %w", err)
		}
	}
	return id, nil
}

// Path resolves an artifact by exact id+format. Anything that is not a UUID
// is treated as absent, which also keeps traversal attempts out of the
// export directory.
func (e *Exporter) Path(id, format string) (string, error) {
	if !ValidFormat(format) {
		return "", domain.ErrValidation
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.ErrNotFound
	}
	path := filepath.Join(e.dir, id+"."+format)
	if _, err := os.Stat(path); err != nil {
		return "", domain.ErrNotFound
	}
	return path, nil
}

// Read returns the artifact bytes for id+format.
func (e *Exporter) Read(id, format string) ([]byte, error) {
	path, err := e.Path(id, format)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func writePDF(path, title, content string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Footer lands on every page; fpdf paginates the body automatically.
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 10)
		footer := "Generated by CourseCraft AI • " + time.Now().Format("Jan 2, 2006")
		pdf.CellFormat(0, 10, tr(footer), "T", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "BU", 20)
	pdf.MultiCell(0, 12, tr(title), "", "C", false)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, tr(content), "", "L", false)

	return pdf.OutputFileAndClose(path)
}
