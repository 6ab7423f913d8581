package gdt

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/capstudy/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  models.GDTType
		wantMag   float64
		wantMC    models.MaterialCondition
		wantDatum []string
		bilateral bool
	}{
		{
			name:      "position with MMC and datums",
			input:     "position 0.5(M) A B C",
			wantType:  models.GDTPosition,
			wantMag:   0.5,
			wantMC:    models.MaterialMMC,
			wantDatum: []string{"A", "B", "C"},
		},
		{
			name:     "flatness",
			input:    "flatness 0.05",
			wantType: models.GDTFlatness,
			wantMag:  0.05,
			wantMC:   models.MaterialNone,
		},
		{
			name:      "bilateral profile",
			input:     "profile 0.2 bilateral A B",
			wantType:  models.GDTProfile,
			wantMag:   0.2,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"A", "B"},
			bilateral: true,
		},
		{
			name:      "comma decimal and long form LMC",
			input:     "Position Ø0,25 LMC B A",
			wantType:  models.GDTPosition,
			wantMag:   0.25,
			wantMC:    models.MaterialLMC,
			wantDatum: []string{"A", "B"},
		},
		{
			name:      "circled modifier glyph",
			input:     "⌖ ⌀0.1Ⓜ A",
			wantType:  models.GDTPosition,
			wantMag:   0.1,
			wantMC:    models.MaterialMMC,
			wantDatum: []string{"A"},
		},
		{
			name:      "total runout beats runout",
			input:     "total runout 0.03 A",
			wantType:  models.GDTTotalRunout,
			wantMag:   0.03,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"A"},
		},
		{
			name:      "case insensitive",
			input:     "PERPENDICULARITY 0.1 A",
			wantType:  models.GDTPerpendicularity,
			wantMag:   0.1,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"A"},
		},
		{
			name:     "plain dimension",
			input:    "Diameter 10 h7",
			wantType: models.GDTNone,
			wantMC:   models.MaterialNone,
		},
		{
			name:     "modifier outside callout",
			input:    "hole Ø10 MMC",
			wantType: models.GDTNone,
			wantMC:   models.MaterialMMC,
		},
		{
			name:     "plural suffix is not a modifier",
			input:    "hole(s) diameter 10",
			wantType: models.GDTNone,
			wantMC:   models.MaterialNone,
		},
		{
			name:     "unit in parentheses is not a modifier",
			input:    "pin(s) length (m)",
			wantType: models.GDTNone,
			wantMC:   models.MaterialNone,
		},
		{
			name:     "lower-case abbreviation outside callout",
			input:    "rfs hole diameter 10",
			wantType: models.GDTNone,
			wantMC:   models.MaterialNone,
		},
		{
			name:      "lower-case modifier inside callout",
			input:     "position 0.2 (s) A",
			wantType:  models.GDTPosition,
			wantMag:   0.2,
			wantMC:    models.MaterialRFS,
			wantDatum: []string{"A"},
		},
		{
			name:      "datum after connective words",
			input:     "Perpendicularity 0.05 to datum A",
			wantType:  models.GDTPerpendicularity,
			wantMag:   0.05,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"A"},
		},
		{
			name:      "datums listed with wrt and and",
			input:     "position 0.1 (M) wrt datums B and A",
			wantType:  models.GDTPosition,
			wantMag:   0.1,
			wantMC:    models.MaterialMMC,
			wantDatum: []string{"A", "B"},
		},
		{
			name:      "relative to datum",
			input:     "parallelism 0.02 relative to C",
			wantType:  models.GDTParallelism,
			wantMag:   0.02,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"C"},
		},
		{
			name:      "duplicate datums collapse",
			input:     "parallelism 0.02 B A B",
			wantType:  models.GDTParallelism,
			wantMag:   0.02,
			wantMC:    models.MaterialNone,
			wantDatum: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			desc := p.Parse(tt.input)
			require.NotNil(t, desc)

			assert.Equal(t, tt.wantType, desc.Type)
			assert.InDelta(t, tt.wantMag, desc.Magnitude, 1e-12)
			assert.Equal(t, tt.wantType != models.GDTNone, desc.HasMagnitude)
			assert.Equal(t, tt.wantMC, desc.MaterialCondition)
			assert.Equal(t, tt.wantDatum, desc.DatumRefs)
			assert.Equal(t, tt.bilateral, desc.BilateralProfile)
			assert.Equal(t, tt.input, desc.Source)
		})
	}
}

func TestParse_InvalidMagnitude(t *testing.T) {
	p := NewParser()

	for _, input := range []string{"flatness 0", "position 0.000 A"} {
		desc := p.Parse(input)
		assert.Equal(t, models.GDTNone, desc.Type, input)
		assert.False(t, desc.HasMagnitude, input)
		assert.Contains(t, desc.Warnings, WarnInvalidTolerance, input)
	}
}

func TestParse_NoMagnitudeMeansNone(t *testing.T) {
	desc := NewParser().Parse("flatness per drawing")
	assert.Equal(t, models.GDTNone, desc.Type)
	assert.False(t, desc.HasMagnitude)
	assert.Empty(t, desc.Warnings)
}

func TestParse_Memoized(t *testing.T) {
	p := NewParser()

	first := p.Parse("position 0.5(M) A B C")
	second := p.Parse("position 0.5(M) A B C")
	if first != second {
		t.Errorf("expected identical descriptor pointer for repeated input")
	}
	if p.Cache().Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", p.Cache().Len())
	}

	other := p.Parse("position 0.5(M) A B")
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, p.Cache().Len())
}

func TestParse_SharedCache(t *testing.T) {
	cache := NewCache(0)
	a := NewParser(WithCache(cache))
	b := NewParser(WithCache(cache))

	assert.Same(t, a.Parse("flatness 0.05"), b.Parse("flatness 0.05"))
}

func TestParse_ConcurrentSamePointer(t *testing.T) {
	p := NewParser()
	const workers = 16

	results := make([]*models.ToleranceDescriptor, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Parse("cylindricity 0.01")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestCache_LRUEviction(t *testing.T) {
	p := NewParser(WithCacheSize(2))

	first := p.Parse("flatness 0.01")
	p.Parse("flatness 0.02")
	p.Parse("flatness 0.01") // touch so 0.02 is oldest
	p.Parse("flatness 0.03")

	assert.Equal(t, 2, p.Cache().Len())
	_, ok := p.Cache().Get("flatness 0.02")
	assert.False(t, ok, "least recently used entry should be evicted")
	assert.Same(t, first, p.Parse("flatness 0.01"))

	p.Cache().Clear()
	assert.Equal(t, 0, p.Cache().Len())
}

func TestPriorityOrderIsDeterministic(t *testing.T) {
	// Both keywords carry a magnitude; position precedes flatness.
	for i := 0; i < 20; i++ {
		desc := NewParser().Parse(fmt.Sprintf("flatness 0.1 and position 0.%d", i+1))
		require.Equal(t, models.GDTPosition, desc.Type)
	}
}

func TestCalloutPatternsFollowPriority(t *testing.T) {
	require.Len(t, calloutPatterns, len(models.GDTPriority))
	for i, p := range calloutPatterns {
		assert.Equal(t, models.GDTPriority[i], p.typ)
	}
}

func TestFlags(t *testing.T) {
	flags := Flags("Flatness 0.05 (M) datum A MIN")

	assert.True(t, flags[FlagKey(models.GDTFlatness)])
	assert.True(t, flags[FlagMin])
	assert.True(t, flags[FlagDatum])
	assert.True(t, flags[FlagMMC])
	assert.False(t, flags[FlagMax])
	assert.False(t, flags[FlagLMC])
	assert.False(t, flags[FlagKey(models.GDTPosition)])

	assert.Len(t, flags, len(FlagKeys()))
}

func TestFlags_Modifiers(t *testing.T) {
	tests := []struct {
		in            string
		mmc, lmc, rfs bool
	}{
		{"pin(s) length (m)", false, false, false},
		{"hole(s) diameter 10", false, false, false},
		{"hole Ø10 MMC", true, false, false},
		{"position 0.1 (l) A, runout 0.02 RFS", false, true, true},
		{"length (S) per note", false, false, false},
	}
	for _, tt := range tests {
		flags := Flags(tt.in)
		assert.Equal(t, tt.mmc, flags[FlagMMC], "%s MMC", tt.in)
		assert.Equal(t, tt.lmc, flags[FlagLMC], "%s LMC", tt.in)
		assert.Equal(t, tt.rfs, flags[FlagRFS], "%s RFS", tt.in)
	}
}

func TestFlags_TotalRunoutImpliesRunout(t *testing.T) {
	flags := Flags("total runout 0.02 A")
	assert.True(t, flags["TOTAL_RUNOUT"])
	assert.True(t, flags["RUNOUT"])
}

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"position diameter 0.5 (M) A B", "⌖ ⌀ 0.5 Ⓜ A B"},
		{"flatness 0.05", "⏥ 0.05"},
		{"total runout 0.1 LMC", "⌰ 0.1 Ⓛ"},
		{"profile of a line 0.2", "⌒ 0.2"},
		{"no keywords here", "no keywords here"},
	}
	for _, tt := range tests {
		if got := FormatDisplay(tt.in); got != tt.want {
			t.Errorf("FormatDisplay(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
