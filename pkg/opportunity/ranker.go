package opportunity

import (
	"sort"
	"strings"
)

// DefaultLimit is the maximum number of opportunities kept per ranking
const DefaultLimit = 10

// Options tune a ranking pass
type Options struct {
	// Limit caps the number of opportunities. Zero or negative means DefaultLimit.
	Limit int
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return DefaultLimit
	}
	return o.Limit
}

type scored struct {
	metric KeywordMetric
	trend  float64
	score  float64
}

// Rank filters, scores, orders and classifies candidates against the seed.
// Only candidates strictly easier than the seed qualify. An empty result is
// a valid outcome.
func Rank(seed KeywordMetric, candidates []KeywordMetric, opts Options) Ranking {
	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Keyword == seed.Keyword {
			continue
		}
		if c.SearchVolume == 0 {
			continue
		}
		if c.CompetitionIndex >= seed.CompetitionIndex {
			continue
		}

		trend := Trend(c.MonthlySearches)
		pool = append(pool, scored{
			metric: c,
			trend:  trend,
			score:  OpportunityScore(c, trend, seed),
		})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].metric.Keyword < pool[j].metric.Keyword
	})

	if limit := opts.limit(); len(pool) > limit {
		pool = pool[:limit]
	}

	opportunities := make([]Opportunity, 0, len(pool))
	for _, s := range pool {
		opportunities = append(opportunities, Opportunity{
			Metric:           s.metric,
			TrendPercent:     s.trend,
			OpportunityScore: s.score,
			CompetitionLevel: CompetitionLevel(s.metric.CompetitionIndex),
			VolumeComparison: VolumeComparison(s.metric.SearchVolume, seed.SearchVolume),
			TrendLabel:       TrendLabel(s.trend),
			Recommendation:   Recommend(s.metric, s.trend, seed),
		})
	}

	return Ranking{
		Baseline:      seed,
		BaselineTrend: Trend(seed.MonthlySearches),
		Opportunities: opportunities,
	}
}

// Analyze normalizes raw provider records, resolves the seed by exact
// keyword match and ranks the rest. Records without a keyword are skipped
// and the first record wins when a keyword repeats.
func Analyze(seedKeyword string, records []RawKeyword, opts Options) (*Ranking, error) {
	seedKeyword = strings.TrimSpace(seedKeyword)
	if seedKeyword == "" {
		return nil, ErrEmptySeed
	}

	seen := make(map[string]struct{}, len(records))
	candidates := make([]KeywordMetric, 0, len(records))
	var (
		seed      KeywordMetric
		seedFound bool
	)

	for _, record := range records {
		metric := Normalize(record)
		if metric.Keyword == "" {
			continue
		}
		if _, dup := seen[metric.Keyword]; dup {
			continue
		}
		seen[metric.Keyword] = struct{}{}

		if metric.Keyword == seedKeyword {
			seed = metric
			seedFound = true
		}
		candidates = append(candidates, metric)
	}

	if !seedFound {
		return nil, ErrSeedNotFound
	}

	ranking := Rank(seed, candidates, opts)
	return &ranking, nil
}
