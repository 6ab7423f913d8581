// Package export renders study results as CSV, JSON, Markdown, HTML and
// XLSX reports. Files are written through internal/filelock so concurrent
// studies never interleave output.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/harrison/capstudy/internal/filelock"
	"github.com/harrison/capstudy/internal/models"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an export format name.
type Format string

// Export formats
const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatMarkdown, FormatHTML, FormatXLSX}
}

// ParseFormat accepts a format name or a common alias ("md", "xls").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "xlsx", "xls", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Exporter writes a study report.
type Exporter interface {
	Export(w io.Writer, study *models.StudyResult) error
}

// New returns the exporter for format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatCSV:
		return &CSVExporter{}, nil
	case FormatJSON:
		return &JSONExporter{Pretty: true}, nil
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatHTML:
		return &HTMLExporter{}, nil
	case FormatXLSX:
		return &XLSXExporter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// WriteFile exports study to path in the format implied by its extension.
func WriteFile(ctx context.Context, path string, study *models.StudyResult) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	return WriteFileAs(ctx, path, format, study)
}

// WriteFileAs exports study to path in format.
func WriteFileAs(ctx context.Context, path string, format Format, study *models.StudyResult) error {
	if study == nil {
		return errors.New("study cannot be nil")
	}
	exporter, err := New(format)
	if err != nil {
		return err
	}
	err = filelock.WriteFile(ctx, path, func(w io.Writer) error {
		return exporter.Export(w, study)
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	return nil
}

// JSONExporter writes the study (summary and records) as JSON.
type JSONExporter struct {
	Pretty bool
}

// Export implements Exporter.
func (je *JSONExporter) Export(w io.Writer, study *models.StudyResult) error {
	enc := json.NewEncoder(w)
	if je.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(study); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
