package models

import "time"

// IndexStats summarises one capability index across the analysed features.
type IndexStats struct {
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Acceptable int     `json:"acceptable_count"`
}

// StudySummary is the study-level roll-up of all feature results.
type StudySummary struct {
	StudyID   string        `json:"study_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	TotalElements      int `json:"total_elements"`
	Good               int `json:"good"`
	Bad                int `json:"bad"`
	SuccessfulAnalyses int `json:"successful_analyses"`
	FailedAnalyses     int `json:"failed_analyses"`

	ElementClasses map[ElementClass]int `json:"element_classes"`

	NormalCount         int     `json:"normal_distributions"`
	NonNormalCount      int     `json:"non_normal_distributions"`
	NormalityPercentage float64 `json:"normality_percentage"`

	AcceptableIndex float64    `json:"acceptable_index"`
	Cp              IndexStats `json:"cp"`
	Cpk             IndexStats `json:"cpk"`
	Pp              IndexStats `json:"pp"`
	Ppk             IndexStats `json:"ppk"`

	ValidationWarnings []string `json:"validation_warnings"`
	Recommendations    []string `json:"recommendations"`
}

// HasCapability reports whether any feature produced capability figures.
func (s StudySummary) HasCapability() bool {
	return s.SuccessfulAnalyses > 0
}

// StudyResult is a completed study: the summary plus one record per feature
// in input order.
type StudyResult struct {
	Summary StudySummary   `json:"summary"`
	Records []OutputRecord `json:"records"`
}
