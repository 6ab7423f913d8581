package display

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

// ProgressIndicator manages multi-file load progress
type ProgressIndicator struct {
	writer     io.Writer
	totalFiles int
	current    int
	useColor   bool
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalFiles: total,
		useColor:   ColorEnabled(w),
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Loading input files:\n")
}

// Step displays progress for current item: [N/Total] filename (cyan)
func (p *ProgressIndicator) Step(filename string) {
	p.current++
	line := fmt.Sprintf("  [%d/%d] %s", p.current, p.totalFiles, filepath.Base(filename))
	fmt.Fprintln(p.writer, painter(p.useColor, color.FgCyan).Sprint(line))
}

// Complete displays success message with green checkmark
func (p *ProgressIndicator) Complete(features int) {
	check := painter(p.useColor, color.FgGreen).Sprint("✓")
	fmt.Fprintf(p.writer, "%s Loaded %d features from %d files\n", check, features, p.totalFiles)
}

// DisplaySingleFile shows simple loading message for single file
func DisplaySingleFile(w io.Writer, filename string) {
	fmt.Fprintf(w, "Loading features from %s...\n", filename)
}
