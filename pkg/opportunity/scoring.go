package opportunity

// Difficulty weights and saturation ceilings
const (
	DifficultyCompetitionWeight = 0.4
	DifficultyCPCWeight         = 0.3
	DifficultyVolumeWeight      = 0.3

	// CPCCeiling is the cost per click at which the CPC component saturates
	CPCCeiling = 5.0
	// VolumeCeiling is the monthly search volume at which the volume component saturates
	VolumeCeiling = 10000.0
)

// Opportunity weights
const (
	OpportunityCompetitionWeight = 0.5
	OpportunityVolumeWeight      = 0.3
	OpportunityTrendWeight       = 0.2
)

// Difficulty scores how hard a keyword is to rank for, 0 (easy) to 100 (hard)
func Difficulty(m KeywordMetric) float64 {
	competition := clamp(m.CompetitionIndex/100, 0, 1)
	cpc := clamp(m.CPC/CPCCeiling, 0, 1)
	volume := clamp(float64(m.SearchVolume)/VolumeCeiling, 0, 1)

	score := 100 * (DifficultyCompetitionWeight*competition +
		DifficultyCPCWeight*cpc +
		DifficultyVolumeWeight*volume)
	return clamp(score, 0, 100)
}

// OpportunityScore rates a candidate against the seed keyword. The trend
// component maps -100%..+100% onto 0..1 and is not clamped outside that range.
func OpportunityScore(m KeywordMetric, trendPercent float64, seed KeywordMetric) float64 {
	competition := 1 - clamp(m.CompetitionIndex/100, 0, 1)

	seedVolume := seed.SearchVolume
	if seedVolume < 1 {
		seedVolume = 1
	}
	volume := clamp(float64(m.SearchVolume)/float64(seedVolume), 0, 1)

	trend := (trendPercent + 100) / 200

	return 100 * (OpportunityCompetitionWeight*competition +
		OpportunityVolumeWeight*volume +
		OpportunityTrendWeight*trend)
}

func clamp(v, lo, hi float64) float64 {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
