package opportunity

import "errors"

// Competition labels reported by the metrics provider
const (
	CompetitionLow    = "LOW"
	CompetitionMedium = "MEDIUM"
	CompetitionHigh   = "HIGH"
)

var (
	// ErrSeedNotFound is returned when no candidate matches the seed keyword
	ErrSeedNotFound = errors.New("seed keyword not found in candidate set")

	// ErrEmptySeed is returned when the seed keyword is blank
	ErrEmptySeed = errors.New("seed keyword is required")

	// ErrMalformedCandidates is returned when a candidate payload is not a list of objects
	ErrMalformedCandidates = errors.New("candidates must be a JSON array of objects")
)

// MonthlySearch is a single month of search volume
type MonthlySearch struct {
	Year         int `json:"year"`
	Month        int `json:"month"`
	SearchVolume int `json:"search_volume"`
}

// KeywordMetric is the canonical, fully populated metric tuple for one keyword
type KeywordMetric struct {
	Keyword           string          `json:"keyword"`
	SearchVolume      int             `json:"search_volume"`
	CPC               float64         `json:"cpc"`
	Competition       string          `json:"competition"`
	CompetitionIndex  float64         `json:"competition_index"`
	MonthlySearches   []MonthlySearch `json:"monthly_searches"`
	KeywordDifficulty float64         `json:"difficulty_score"`
}

// Opportunity is a ranked candidate with its derived scores and labels.
// Values are built once per ranking pass and never mutated afterwards.
type Opportunity struct {
	Metric           KeywordMetric
	TrendPercent     float64
	OpportunityScore float64
	CompetitionLevel string
	VolumeComparison string
	TrendLabel       string
	Recommendation   string
}

// Ranking is the result of one ranking pass
type Ranking struct {
	Baseline      KeywordMetric
	BaselineTrend float64
	Opportunities []Opportunity
}

// Entry is the flat output shape consumed by the presentation layer and prompt builders
type Entry struct {
	Keyword          string   `json:"keyword"`
	SearchVolume     int      `json:"search_volume"`
	CPC              float64  `json:"cpc"`
	Competition      string   `json:"competition"`
	CompetitionIndex float64  `json:"competition_index"`
	DifficultyScore  float64  `json:"difficulty_score"`
	TrendPercent     float64  `json:"trend_percent"`
	OpportunityScore *float64 `json:"opportunity_score,omitempty"`
	CompetitionLevel string   `json:"competition_level,omitempty"`
	VolumeComparison string   `json:"volume_comparison,omitempty"`
	TrendLabel       string   `json:"trend_analysis,omitempty"`
	Recommendation   string   `json:"recommendation,omitempty"`
	Baseline         bool     `json:"baseline"`
}

// Entries flattens the ranking with the unscored seed at index 0
func (r *Ranking) Entries() []Entry {
	entries := make([]Entry, 0, len(r.Opportunities)+1)
	entries = append(entries, Entry{
		Keyword:          r.Baseline.Keyword,
		SearchVolume:     r.Baseline.SearchVolume,
		CPC:              r.Baseline.CPC,
		Competition:      r.Baseline.Competition,
		CompetitionIndex: r.Baseline.CompetitionIndex,
		DifficultyScore:  r.Baseline.KeywordDifficulty,
		TrendPercent:     r.BaselineTrend,
		Baseline:         true,
	})

	for _, opp := range r.Opportunities {
		score := opp.OpportunityScore
		entries = append(entries, Entry{
			Keyword:          opp.Metric.Keyword,
			SearchVolume:     opp.Metric.SearchVolume,
			CPC:              opp.Metric.CPC,
			Competition:      opp.Metric.Competition,
			CompetitionIndex: opp.Metric.CompetitionIndex,
			DifficultyScore:  opp.Metric.KeywordDifficulty,
			TrendPercent:     opp.TrendPercent,
			OpportunityScore: &score,
			CompetitionLevel: opp.CompetitionLevel,
			VolumeComparison: opp.VolumeComparison,
			TrendLabel:       opp.TrendLabel,
			Recommendation:   opp.Recommendation,
		})
	}
	return entries
}
