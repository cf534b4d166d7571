package opportunity

import "math"

// Competition index bands. Each band includes its lower bound.
const (
	VeryLowCompetitionBelow  = 30.0
	LowCompetitionBelow      = 50.0
	ModerateCompetitionBelow = 70.0
	HighCompetitionBelow     = 85.0
)

// Volume ratio thresholds relative to the seed keyword
const (
	SignificantlyHigherRatio = 1.5
	HigherRatio              = 1.2
	SimilarRatio             = 0.8
	LowerRatio               = 0.5
)

// Trend thresholds in percent
const (
	StrongUpwardTrend    = 50.0
	ModerateGrowthTrend  = 20.0
	StableTrendFloor     = -20.0
	ModerateDeclineTrend = -50.0
)

// Recommendation thresholds
const (
	// LowCompetitionIndex is the index below which a candidate counts as low competition
	LowCompetitionIndex = 30.0
	// MeaningfulVolumeShare is the share of seed volume a low-competition candidate must exceed
	MeaningfulVolumeShare = 0.3
	// GrowingTrendPercent is the trend above which search interest counts as growing
	GrowingTrendPercent = 20.0
	// LowerCostShare is the share of seed CPC below which a candidate is a cheaper paid target
	LowerCostShare = 0.7
)

// Recommendation tags
const (
	RecommendHighPotential = "High potential opportunity with low competition"
	RecommendGrowing       = "Growing search interest, consider targeting soon"
	RecommendLowerCost     = "Lower cost opportunity for paid campaigns"
	RecommendMonitor       = "Moderate opportunity, monitor for changes"
)

// CompetitionLevel buckets a competition index into a qualitative level
func CompetitionLevel(index float64) string {
	switch {
	case index < VeryLowCompetitionBelow:
		return "Very Low"
	case index < LowCompetitionBelow:
		return "Low"
	case index < ModerateCompetitionBelow:
		return "Moderate"
	case index < HighCompetitionBelow:
		return "High"
	default:
		return "Very High"
	}
}

// VolumeComparison describes a candidate's volume relative to the seed
func VolumeComparison(volume, seedVolume int) string {
	ratio := math.Inf(1)
	switch {
	case seedVolume > 0:
		ratio = float64(volume) / float64(seedVolume)
	case volume <= 0:
		ratio = 0
	}

	switch {
	case ratio > SignificantlyHigherRatio:
		return "Significantly higher than main keyword"
	case ratio > HigherRatio:
		return "Higher than main keyword"
	case ratio > SimilarRatio:
		return "Similar to main keyword"
	case ratio > LowerRatio:
		return "Lower than main keyword"
	default:
		return "Significantly lower than main keyword"
	}
}

// TrendLabel describes a trend percentage
func TrendLabel(trend float64) string {
	switch {
	case trend > StrongUpwardTrend:
		return "Strong upward trend"
	case trend > ModerateGrowthTrend:
		return "Moderate growth"
	case trend > StableTrendFloor:
		return "Stable"
	case trend > ModerateDeclineTrend:
		return "Moderate decline"
	default:
		return "Strong downward trend"
	}
}

// Recommend picks the first matching recommendation rule
func Recommend(m KeywordMetric, trendPercent float64, seed KeywordMetric) string {
	switch {
	case m.CompetitionIndex < LowCompetitionIndex &&
		float64(m.SearchVolume) > MeaningfulVolumeShare*float64(seed.SearchVolume):
		return RecommendHighPotential
	case trendPercent > GrowingTrendPercent:
		return RecommendGrowing
	case m.CPC < LowerCostShare*seed.CPC:
		return RecommendLowerCost
	default:
		return RecommendMonitor
	}
}
