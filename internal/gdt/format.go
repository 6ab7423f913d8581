package gdt

import "regexp"

type displayRule struct {
	re    *regexp.Regexp
	glyph string
}

// displayRules are applied in order; longer phrases come before the words
// they contain.
var displayRules = []displayRule{
	{regexp.MustCompile(`(?i)\btotal[\s-]*run[\s-]*out\b`), "⌰"},
	{regexp.MustCompile(`(?i)\b(?:circular[\s-]+)?run[\s-]*out\b`), "↗"},
	{regexp.MustCompile(`(?i)\b(?:true[\s-]+)?position\b`), "⌖"},
	{regexp.MustCompile(`(?i)\bprofile\s+of\s+(?:a\s+)?line\b`), "⌒"},
	{regexp.MustCompile(`(?i)\bprofile(?:\s+of\s+(?:a\s+)?surface)?\b`), "⌓"},
	{regexp.MustCompile(`(?i)\bflatness\b`), "⏥"},
	{regexp.MustCompile(`(?i)\bparallelism\b`), "∥"},
	{regexp.MustCompile(`(?i)\b(?:perpendicularity|squareness)\b`), "⟂"},
	{regexp.MustCompile(`(?i)\bangularity\b`), "∠"},
	{regexp.MustCompile(`(?i)\b(?:circularity|roundness)\b`), "○"},
	{regexp.MustCompile(`(?i)\bcylindricity\b`), "⌭"},
	{regexp.MustCompile(`(?i)\bstraightness\b`), "⏤"},
	{regexp.MustCompile(`(?i)\b(?:concentricity|coaxiality)\b`), "◎"},
	{regexp.MustCompile(`(?i)\bsymmetry\b`), "⌯"},
	{regexp.MustCompile(`(?i)\(diam\.?\)|\bdiam(?:eter)?\b\.?|\bdia\b\.?|[øØ]`), "⌀"},
	{regexp.MustCompile(`(?i)\(\s*M\s*\)|\bMMC\b`), "Ⓜ"},
	{regexp.MustCompile(`(?i)\(\s*L\s*\)|\bLMC\b`), "Ⓛ"},
	{regexp.MustCompile(`(?i)\(\s*S\s*\)|\bRFS\b`), "Ⓢ"},
}

// FormatDisplay rewrites recognised keywords in description to their GD&T
// glyphs, e.g. "position diameter 0.5 MMC A" -> "⌖ ⌀ 0.5 Ⓜ A".
// The result is for presentation only and is never fed back to the parser.
func FormatDisplay(description string) string {
	out := normalize(description)
	for _, rule := range displayRules {
		out = rule.re.ReplaceAllLiteralString(out, rule.glyph)
	}
	return out
}
