package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/models"
)

// Callout is a geometric tolerance found in a drawing.
type Callout struct {
	Page       int                         `json:"page"`
	Line       int                         `json:"line"`
	Text       string                      `json:"text"`
	Display    string                      `json:"display"`
	Descriptor *models.ToleranceDescriptor `json:"descriptor"`
}

// ReadDrawing extracts the text of every page of a drawing PDF and returns
// the lines that parse as geometric tolerance callouts.
func ReadDrawing(path string, parser *gdt.Parser) ([]Callout, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var callouts []Callout
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped
			continue
		}
		callouts = append(callouts, ExtractCallouts(parser, i, text)...)
	}
	return callouts, nil
}

// ExtractCallouts scans page text line by line and keeps every line whose
// description parses to a tolerance type.
func ExtractCallouts(parser *gdt.Parser, page int, text string) []Callout {
	if parser == nil {
		parser = gdt.NewParser()
	}

	var callouts []Callout
	for n, line := range strings.Split(text, "\n") {
		line = NormalizeDescription(line)
		if line == "" {
			continue
		}
		desc := parser.Parse(line)
		if desc.Type == models.GDTNone {
			continue
		}
		callouts = append(callouts, Callout{
			Page:       page,
			Line:       n + 1,
			Text:       line,
			Display:    gdt.FormatDisplay(line),
			Descriptor: desc,
		})
	}
	return callouts
}
