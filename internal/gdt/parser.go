// Package gdt interprets free-text geometric tolerance callouts.
//
// The Parser turns a feature description such as "position Ø0.5(M) A B C"
// into a models.ToleranceDescriptor. Type keywords are matched
// case-insensitively in the fixed order of models.GDTPriority; the first
// callout with a numeric magnitude wins. Results are memoized per exact input
// string in a Cache owned by the Parser, so repeated descriptions in a study
// share one immutable descriptor.
package gdt

import (
	"sort"
	"strings"

	"github.com/harrison/capstudy/internal/models"
)

// WarnInvalidTolerance is recorded when a callout carries a zero or
// unparseable magnitude.
const WarnInvalidTolerance = "invalid tolerance value"

// Parser parses tolerance descriptions. The zero value is not usable; create
// one with NewParser.
type Parser struct {
	cache *Cache
}

// Option configures a Parser.
type Option func(*Parser)

// WithCache makes the parser use (and share) an existing cache.
func WithCache(c *Cache) Option {
	return func(p *Parser) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithCacheSize bounds the parser's private cache to n entries (LRU).
func WithCacheSize(n int) Option {
	return func(p *Parser) {
		p.cache = NewCache(n)
	}
}

// NewParser creates a Parser with an unbounded private cache unless an
// option says otherwise.
func NewParser(opts ...Option) *Parser {
	p := &Parser{cache: NewCache(0)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache exposes the parser's cache, mainly for tests and diagnostics.
func (p *Parser) Cache() *Cache {
	return p.cache
}

// Parse returns the descriptor for description. Calling Parse twice with the
// same string returns the identical pointer.
func (p *Parser) Parse(description string) *models.ToleranceDescriptor {
	if desc, ok := p.cache.Get(description); ok {
		return desc
	}
	return p.cache.PutIfAbsent(description, p.parse(description))
}

func (p *Parser) parse(description string) *models.ToleranceDescriptor {
	text := normalize(description)
	desc := &models.ToleranceDescriptor{
		Source:            description,
		Type:              models.GDTNone,
		MaterialCondition: models.MaterialNone,
	}

	for _, pattern := range calloutPatterns {
		loc := pattern.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}

		token := text[loc[2]:loc[3]]
		magnitude, ok := parseMagnitude(token)
		if !ok {
			desc.Warnings = append(desc.Warnings, WarnInvalidTolerance)
		} else {
			desc.Type = pattern.typ
			desc.Magnitude = magnitude
			desc.HasMagnitude = true
		}

		p.readTail(desc, text[loc[1]:])
		break
	}

	if desc.MaterialCondition == models.MaterialNone {
		if m := longModifier.FindStringSubmatch(text); m != nil {
			desc.MaterialCondition = materialFromToken(m[1])
		}
	}

	if desc.Type == models.GDTProfile && bilateralWord.MatchString(text) {
		desc.BilateralProfile = true
	}

	return desc
}

// readTail extracts modifier and datum references from the text that follows
// the magnitude.
func (p *Parser) readTail(desc *models.ToleranceDescriptor, tail string) {
	m := tailPattern.FindStringSubmatch(tail)
	if m == nil {
		return
	}

	desc.MaterialCondition = tailModifier(m)

	if m[4] == "" {
		return
	}
	seen := make(map[string]bool)
	for _, letter := range datumLetter.FindAllString(m[4], -1) {
		if !seen[letter] {
			seen[letter] = true
			desc.DatumRefs = append(desc.DatumRefs, letter)
		}
	}
	sort.Strings(desc.DatumRefs)
}

// tailModifier maps a tailPattern match to its material condition.
func tailModifier(m []string) models.MaterialCondition {
	return materialFromToken(m[1] + m[2])
}

// parseMagnitude accepts dot or comma decimals. Zero, negative and malformed
// tokens are rejected.
func parseMagnitude(token string) (float64, bool) {
	token = strings.TrimRight(token, ".,")
	v, err := models.ParseDecimal(token)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func materialFromToken(token string) models.MaterialCondition {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "M", "MMC":
		return models.MaterialMMC
	case "L", "LMC":
		return models.MaterialLMC
	case "S", "RFS":
		return models.MaterialRFS
	}
	return models.MaterialNone
}
