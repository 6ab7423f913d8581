// Package ingest loads measurement input records from files.
//
// Supported formats are YAML, JSON, CSV and XLSX. Paths may be glob
// patterns, including "**" for recursive matches. Drawing PDFs are read
// separately with ReadDrawing.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/harrison/capstudy/internal/models"
)

// ErrUnsupportedFormat is returned for files whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ErrNoInputs is returned when the given patterns match no files.
var ErrNoInputs = errors.New("no input files matched")

// Format represents the format of an input file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatYAML represents a YAML (.yaml, .yml) record list
	FormatYAML
	// FormatJSON represents a JSON (.json) record list
	FormatJSON
	// FormatCSV represents a CSV (.csv) measurement table
	FormatCSV
	// FormatXLSX represents an Excel (.xlsx, .xlsm) measurement workbook
	FormatXLSX
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat detects the input format from the file extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// Loader decodes input records from a reader.
type Loader interface {
	Load(r io.Reader) ([]models.InputRecord, error)
}

// NewLoader returns the loader for format.
func NewLoader(format Format) (Loader, error) {
	switch format {
	case FormatYAML:
		return documentLoader{json: false}, nil
	case FormatJSON:
		return documentLoader{json: true}, nil
	case FormatCSV:
		return csvLoader{}, nil
	case FormatXLSX:
		return xlsxLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

// LoadFile detects the format of path and loads its records. Descriptions are
// normalized on the way in.
func LoadFile(path string) ([]models.InputRecord, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%s: %w (supported: .yaml, .yml, .json, .csv, .xlsx)", path, ErrUnsupportedFormat)
	}

	loader, err := NewLoader(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	records, err := loader.Load(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	for i := range records {
		records[i].Description = NormalizeDescription(records[i].Description)
	}
	return records, nil
}

// Load expands patterns and loads every matched file in order. Records from
// all files are concatenated.
func Load(ctx context.Context, patterns ...string) ([]models.InputRecord, []string, error) {
	paths, err := Expand(patterns...)
	if err != nil {
		return nil, nil, err
	}

	var records []models.InputRecord
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, loaded...)
	}
	return records, paths, nil
}

// Expand resolves each pattern to the files it names. Plain paths are kept
// as they are; glob patterns are expanded with "**" support and only files
// of a supported format are kept. The result is sorted and de-duplicated.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to access input: %w", err)
			}
			if !info.IsDir() {
				add(pattern)
				continue
			}
			pattern = filepath.Join(pattern, "**", "*")
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		for _, m := range matches {
			if DetectFormat(m) == FormatUnknown {
				continue
			}
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, strings.Join(patterns, ", "))
	}
	sort.Strings(paths)
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
