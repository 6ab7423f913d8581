package gdt

import (
	"strings"

	"github.com/harrison/capstudy/internal/models"
)

// Flag keys that are not tolerance types.
const (
	FlagMin   = "MIN"
	FlagMax   = "MAX"
	FlagDatum = "DATUM"
	FlagMMC   = "MMC"
	FlagLMC   = "LMC"
	FlagRFS   = "RFS"
)

// FlagKey returns the gdt_flags key for a tolerance type, e.g. TOTAL_RUNOUT.
func FlagKey(t models.GDTType) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "-", "_"))
}

// Flags reports which keywords appear in description. Every known key is
// present in the map so that exported tables have stable columns.
//
// Type flags are keyword hits and do not require a magnitude, so
// "flatness per drawing" sets FLATNESS even though it parses to type none.
func Flags(description string) map[string]bool {
	text := normalize(description)

	flags := make(map[string]bool, len(models.GDTPriority)+6)
	for _, typ := range models.GDTPriority {
		flags[FlagKey(typ)] = keywordPatterns[typ].MatchString(text)
	}
	// "total runout" is also a runout.
	if flags[FlagKey(models.GDTTotalRunout)] {
		flags[FlagKey(models.GDTRunout)] = true
	}

	flags[FlagMin] = minimumWord.MatchString(text)
	flags[FlagMax] = maximumWord.MatchString(text)
	flags[FlagDatum] = datumWord.MatchString(text)
	flags[FlagMMC] = false
	flags[FlagLMC] = false
	flags[FlagRFS] = false

	for _, mc := range modifiers(text) {
		switch mc {
		case models.MaterialMMC:
			flags[FlagMMC] = true
		case models.MaterialLMC:
			flags[FlagLMC] = true
		case models.MaterialRFS:
			flags[FlagRFS] = true
		}
	}
	return flags
}

// modifiers collects the material conditions written in any callout tail,
// plus upper-case MMC/LMC/RFS abbreviations found elsewhere in the text.
func modifiers(text string) []models.MaterialCondition {
	var found []models.MaterialCondition
	for _, pattern := range calloutPatterns {
		for _, loc := range pattern.re.FindAllStringIndex(text, -1) {
			if m := tailPattern.FindStringSubmatch(text[loc[1]:]); m != nil {
				if mc := tailModifier(m); mc != models.MaterialNone {
					found = append(found, mc)
				}
			}
		}
	}
	for _, m := range longModifier.FindAllStringSubmatch(text, -1) {
		found = append(found, materialFromToken(m[1]))
	}
	return found
}

// FlagKeys returns every key Flags can produce, in a stable order.
func FlagKeys() []string {
	keys := make([]string, 0, len(models.GDTPriority)+6)
	keys = append(keys, FlagMin, FlagMax, FlagDatum)
	for _, typ := range models.GDTPriority {
		keys = append(keys, FlagKey(typ))
	}
	return append(keys, FlagMMC, FlagLMC, FlagRFS)
}
