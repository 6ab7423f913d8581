package gdt

import (
	"regexp"
	"strings"

	"github.com/harrison/capstudy/internal/models"
)

// typeKeywords holds the word forms and glyphs recognised for each tolerance
// type. Word forms carry their own \b anchors because glyphs are not word
// characters.
var typeKeywords = map[models.GDTType]string{
	models.GDTTotalRunout:      `\btotal[\s-]*run[\s-]*out\b|⌰`,
	models.GDTRunout:           `\b(?:circular[\s-]+)?run[\s-]*out\b|↗`,
	models.GDTPosition:         `\b(?:true[\s-]+)?position\b|⌖`,
	models.GDTProfile:          `\bprofile(?:\s+of\s+(?:a\s+)?(?:surface|line))?\b|⌓|⌒`,
	models.GDTFlatness:         `\bflatness\b|⏥`,
	models.GDTParallelism:      `\bparallelism\b|∥`,
	models.GDTPerpendicularity: `\bperpendicularity\b|\bsquareness\b|⟂|⊥`,
	models.GDTAngularity:       `\bangularity\b|∠`,
	models.GDTCircularity:      `\bcircularity\b|\broundness\b|○`,
	models.GDTCylindricity:     `\bcylindricity\b|⌭`,
	models.GDTStraightness:     `\bstraightness\b|⏤`,
	models.GDTConcentricity:    `\bconcentricity\b|\bcoaxiality\b|◎`,
	models.GDTSymmetry:         `\bsymmetry\b|⌯`,
}

// diameterPrefix matches an optional diameter marker between the type keyword
// and the magnitude ("position Ø0.5", "position (diam.) 0,5").
const diameterPrefix = `(?:(?i:\(diam\.?\)|diam(?:eter)?\.?|dia\.?)|Ø|ø|⌀)?`

// calloutPattern is a compiled per-type pattern. Group 1 is the raw magnitude
// token; everything after the match is the callout tail.
type calloutPattern struct {
	typ models.GDTType
	re  *regexp.Regexp
}

// calloutPatterns is built in models.GDTPriority order so that dispatch never
// depends on map iteration.
var calloutPatterns = buildCalloutPatterns()

func buildCalloutPatterns() []calloutPattern {
	patterns := make([]calloutPattern, 0, len(models.GDTPriority))
	for _, typ := range models.GDTPriority {
		expr := `(?i:` + typeKeywords[typ] + `)` +
			`[\s:=|]*` + diameterPrefix + `[\s:=|]*` +
			`([0-9.,]*[0-9][0-9.,]*)`
		patterns = append(patterns, calloutPattern{typ: typ, re: regexp.MustCompile(expr)})
	}
	return patterns
}

// keywordPatterns detect a type keyword with or without a magnitude. Used for
// the gdt_flags map.
var keywordPatterns = buildKeywordPatterns()

func buildKeywordPatterns() map[models.GDTType]*regexp.Regexp {
	patterns := make(map[models.GDTType]*regexp.Regexp, len(typeKeywords))
	for typ, kw := range typeKeywords {
		patterns[typ] = regexp.MustCompile(`(?i:` + kw + `)`)
	}
	return patterns
}

var (
	// tailPattern reads what follows the magnitude: modifier, bilateral
	// keyword and a run of single uppercase datum letters. Connective words
	// ("to datum A", "wrt datums A and B") may sit between the letters.
	tailPattern = regexp.MustCompile(
		`^[\s|]*` +
			`(?:\(\s*([MLSmls])\s*\)|(?i:\b(MMC|LMC|RFS)\b))?` +
			`[\s|,]*` +
			`((?i:\b(?:bi|uni)lateral\b))?` +
			`((?:[\s|,\-]*(?:(?i:\b(?:to|wrt|and|datums?|rel(?:ative)?\s+to)\b)[\s|,\-]*)*\b[A-Z]\b)*)`)

	datumLetter = regexp.MustCompile(`\b[A-Z]\b`)

	// longModifier finds an upper-case MMC/LMC/RFS abbreviation anywhere in
	// the text. Parenthesised letters only count inside a callout tail.
	longModifier = regexp.MustCompile(`\b(MMC|LMC|RFS)\b`)

	bilateralWord = regexp.MustCompile(`(?i:\bbilateral\b)`)
	minimumWord   = regexp.MustCompile(`(?i:\bmin(?:imum)?\b|\bmin\.)`)
	maximumWord   = regexp.MustCompile(`(?i:\bmax(?:imum)?\b|\bmax\.)`)
	datumWord     = regexp.MustCompile(`(?i:\bdatums?\b)`)
)

// symbolPairs rewrite circled modifier glyphs and their emoji variants into
// the parenthesised ASCII forms the patterns expect.
var symbolPairs = []string{
	"\uFE0F", "",
	"Ⓜ", "(M)",
	"Ⓛ", "(L)",
	"Ⓢ", "(S)",
	"Ⓔ", "(E)",
	"ⓔ", "(E)",
}

var symbolReplacer = strings.NewReplacer(symbolPairs...)

func normalize(description string) string {
	return symbolReplacer.Replace(description)
}
