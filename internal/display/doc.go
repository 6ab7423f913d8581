// Package display provides terminal output for capability studies: input
// loading progress, warnings and the per-feature result table.
//
// # Progress Indicators
//
// Use ProgressIndicator while loading several input files:
//
//	progress := display.NewProgressIndicator(os.Stderr, len(files))
//	progress.Start()
//	for _, file := range files {
//	    progress.Step(file)
//	    // ... load file ...
//	}
//	progress.Complete(featureCount)
//
// # Warning Messages
//
//	warning := display.WarnValidation(summary.ValidationWarnings)
//	warning.Display(os.Stderr)
//
// # Result Table
//
//	display.RenderResults(os.Stdout, study.Records, display.TableOptions{
//	    Color:      display.ColorEnabled(os.Stdout),
//	    Acceptable: 1.33,
//	})
//
// Colors are only emitted when the destination is a terminal and NO_COLOR is
// unset. All functions accept io.Writer for testability.
package display
