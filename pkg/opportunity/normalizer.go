package opportunity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Defaults applied when the provider omits a field. Unknown competition is
// treated as high risk.
const (
	DefaultCompetition      = CompetitionHigh
	DefaultCompetitionIndex = 100.0

	maxSearchVolume = 1 << 53
)

// RawKeyword is a provider record where every metric may be missing
type RawKeyword struct {
	Keyword          string             `json:"keyword"`
	SearchVolume     *float64           `json:"search_volume,omitempty"`
	CPC              *float64           `json:"cpc,omitempty"`
	Competition      *string            `json:"competition,omitempty"`
	CompetitionIndex *float64           `json:"competition_index,omitempty"`
	MonthlySearches  []RawMonthlySearch `json:"monthly_searches,omitempty"`
}

// RawMonthlySearch is a provider monthly sample with optional volume
type RawMonthlySearch struct {
	Year         int      `json:"year"`
	Month        int      `json:"month"`
	SearchVolume *float64 `json:"search_volume,omitempty"`
}

// UnmarshalJSON decodes a provider record leniently. Only a non-object
// document is an error; bad field values are dropped so Normalize can
// substitute defaults.
func (r *RawKeyword) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return fmt.Errorf("keyword record is not an object: %s", truncate(data, 80))
	}

	*r = RawKeyword{
		Keyword:          lenientString(fields["keyword"]),
		SearchVolume:     lenientNumber(fields["search_volume"]),
		CPC:              lenientNumber(fields["cpc"]),
		CompetitionIndex: lenientNumber(fields["competition_index"]),
	}

	if raw, ok := fields["competition"]; ok {
		var label string
		if err := json.Unmarshal(raw, &label); err == nil && label != "" {
			r.Competition = &label
		}
	}

	var months []json.RawMessage
	if err := json.Unmarshal(fields["monthly_searches"], &months); err == nil {
		for _, item := range months {
			var sample map[string]json.RawMessage
			if err := json.Unmarshal(item, &sample); err != nil || sample == nil {
				continue
			}
			r.MonthlySearches = append(r.MonthlySearches, RawMonthlySearch{
				Year:         lenientInt(sample["year"]),
				Month:        lenientInt(sample["month"]),
				SearchVolume: lenientNumber(sample["search_volume"]),
			})
		}
	}

	return nil
}

// DecodeCandidates parses a JSON array of provider records
func DecodeCandidates(data []byte) ([]RawKeyword, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedCandidates
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCandidates, err)
	}

	records := make([]RawKeyword, 0, len(items))
	for i, item := range items {
		var record RawKeyword
		if err := json.Unmarshal(item, &record); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedCandidates, i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Normalize converts a raw record into a fully populated KeywordMetric.
// It never fails.
func Normalize(raw RawKeyword) KeywordMetric {
	metric := KeywordMetric{
		Keyword:          strings.TrimSpace(raw.Keyword),
		SearchVolume:     volumeOrZero(raw.SearchVolume),
		CPC:              nonNegativeOrZero(raw.CPC),
		Competition:      competitionLabel(raw.Competition),
		CompetitionIndex: competitionIndex(raw.CompetitionIndex),
		MonthlySearches:  monthlySearches(raw.MonthlySearches),
	}
	metric.KeywordDifficulty = Difficulty(metric)
	return metric
}

func volumeOrZero(v *float64) int {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0
	}
	if *v > maxSearchVolume {
		return maxSearchVolume
	}
	return int(math.Round(*v))
}

func nonNegativeOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0
	}
	return *v
}

func competitionLabel(v *string) string {
	if v == nil {
		return DefaultCompetition
	}
	switch label := strings.ToUpper(strings.TrimSpace(*v)); label {
	case CompetitionLow, CompetitionMedium, CompetitionHigh:
		return label
	default:
		return DefaultCompetition
	}
}

func competitionIndex(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return DefaultCompetitionIndex
	}
	return clamp(*v, 0, 100)
}

func monthlySearches(raw []RawMonthlySearch) []MonthlySearch {
	if len(raw) == 0 {
		return []MonthlySearch{}
	}

	months := make([]MonthlySearch, 0, len(raw))
	for _, m := range raw {
		months = append(months, MonthlySearch{
			Year:         m.Year,
			Month:        m.Month,
			SearchVolume: volumeOrZero(m.SearchVolume),
		})
	}

	// DataForSEO returns newest first
	sort.SliceStable(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months
}

func lenientNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func lenientInt(raw json.RawMessage) int {
	n := lenientNumber(raw)
	if n == nil || math.IsNaN(*n) || math.IsInf(*n, 0) {
		return 0
	}
	return int(*n)
}

func lenientString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
