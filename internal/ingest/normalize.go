package ingest

import (
	"strings"
)

// descriptionSymbols rewrites drawing glyphs that spreadsheets and QA exports
// carry into the ASCII forms the callout parser reads.
var descriptionSymbols = strings.NewReplacer(
	"\uFE0F", "",
	"Ⓜ", "(M)",
	"Ⓛ", "(L)",
	"Ⓢ", "(S)",
	"ⓔ", "(E)",
	"Ø", "(diam.)",
	"ø", "(diam.)",
	"º", "(gr.)",
	"°", "(gr.)",
	"\u00A0", " ",
)

// NormalizeDescription replaces drawing glyphs with ASCII forms and collapses
// runs of whitespace.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(descriptionSymbols.Replace(s)), " ")
}
