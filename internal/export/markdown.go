package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/capstudy/internal/models"
)

// MarkdownExporter writes a human-readable study report.
type MarkdownExporter struct{}

// Export implements Exporter.
func (me *MarkdownExporter) Export(w io.Writer, study *models.StudyResult) error {
	_, err := io.WriteString(w, renderMarkdown(study))
	return err
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func renderMarkdown(study *models.StudyResult) string {
	s := study.Summary
	var sb strings.Builder

	sb.WriteString("# Capability Study Report\n\n")
	if s.StudyID != "" {
		sb.WriteString(fmt.Sprintf("**Study ID**: %s\n\n", s.StudyID))
	}
	if !s.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Started**: %s (%s)\n\n", s.StartedAt.Format("2006-01-02 15:04:05"), s.Duration.Round(time.Millisecond)))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Elements**: %d (GOOD %d / BAD %d)\n", s.TotalElements, s.Good, s.Bad))
	if s.SuccessfulAnalyses > 0 || s.FailedAnalyses > 0 {
		sb.WriteString(fmt.Sprintf("- **Capability analyses**: %d successful, %d failed\n", s.SuccessfulAnalyses, s.FailedAnalyses))
		sb.WriteString(fmt.Sprintf("- **Normal distributions**: %d of %d (%.1f%%)\n",
			s.NormalCount, s.SuccessfulAnalyses, s.NormalityPercentage))
	}
	sb.WriteString("\n")

	if s.HasCapability() {
		sb.WriteString("## Capability Indices\n\n")
		sb.WriteString(fmt.Sprintf("| Index | Mean | Min | Max | ≥ %.2f |\n", s.AcceptableIndex))
		sb.WriteString("|-------|------|-----|-----|------|\n")
		for _, ix := range []struct {
			name  string
			stats models.IndexStats
		}{{"Cp", s.Cp}, {"Cpk", s.Cpk}, {"Pp", s.Pp}, {"Ppk", s.Ppk}} {
			sb.WriteString(fmt.Sprintf("| %s | %.3f | %.3f | %.3f | %d/%d |\n",
				ix.name, ix.stats.Mean, ix.stats.Min, ix.stats.Max, ix.stats.Acceptable, s.SuccessfulAnalyses))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Results\n\n")
	sb.WriteString("| Element | Type | Nominal | Lower | Upper | Mean | Out of spec | Status | Cpk | Ppk | AD | p |\n")
	sb.WriteString("|---------|------|---------|-------|-------|------|-------------|--------|-----|-----|----|---|\n")
	for _, r := range study.Records {
		cpk, ppk, ad, p := "-", "-", "-", "-"
		if c := r.Capability; c != nil {
			cpk = fmt.Sprintf("%.3f", c.Cpk)
			ppk = fmt.Sprintf("%.3f", c.Ppk)
			ad = fmt.Sprintf("%.4f", c.ADStatistic)
			p = fmt.Sprintf("%.4f", c.PValue)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.4f | %d | %s | %s | %s | %s | %s |\n",
			cell(r.ElementID),
			cell(r.FeatureType),
			num(r.Nominal),
			num(r.EffectiveLowerTolerance),
			num(r.EffectiveUpperTolerance),
			r.Mean,
			r.OutOfSpecCount,
			r.Status,
			cpk, ppk, ad, p))
	}
	sb.WriteString("\n")

	if len(s.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, rec := range s.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
		sb.WriteString("\n")
	}

	if len(s.ValidationWarnings) > 0 {
		sb.WriteString("## Validation Warnings\n\n")
		for _, warn := range s.ValidationWarnings {
			sb.WriteString(fmt.Sprintf("- %s\n", warn))
		}
		sb.WriteString("\n")
	}

	var featureWarnings []string
	for _, r := range study.Records {
		for _, warn := range r.Warnings {
			featureWarnings = append(featureWarnings, fmt.Sprintf("- **%s**: %s\n", r.ElementID, warn))
		}
	}
	if len(featureWarnings) > 0 {
		sb.WriteString("## Feature Warnings\n\n")
		sb.WriteString(strings.Join(featureWarnings, ""))
		sb.WriteString("\n")
	}

	return sb.String()
}

// HTMLExporter renders the Markdown report to a standalone HTML page.
type HTMLExporter struct{}

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

const htmlStyle = `body{font-family:sans-serif;margin:2em}` +
	`table{border-collapse:collapse}` +
	`th,td{border:1px solid #ccc;padding:4px 8px;text-align:right}` +
	`th:first-child,td:first-child{text-align:left}`

// Export implements Exporter.
func (he *HTMLExporter) Export(w io.Writer, study *models.StudyResult) error {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(renderMarkdown(study)), &body); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	title := "Capability Study"
	if study.Summary.StudyID != "" {
		title += " " + study.Summary.StudyID
	}
	_, err := fmt.Fprintf(w,
		"<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), htmlStyle, body.String())
	return err
}
