package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"keyword-radar/pkg/api"
	"keyword-radar/pkg/insight"
	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/opportunity"
	"keyword-radar/pkg/storage"
)

var (
	ErrEmptyKeyword = errors.New("keyword is required")

	// ErrAnalysisFailed marks failures in the metrics or text providers,
	// as opposed to an analysis that succeeded with zero opportunities
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Analysis is the full result shown on the dashboard
type Analysis struct {
	ID               string                `json:"id"`
	Keyword          string                `json:"keyword"`
	CreatedAt        time.Time             `json:"created_at"`
	Entries          []opportunity.Entry   `json:"entries"`
	OpportunityCount int                   `json:"opportunity_count"`
	Insights         *insight.Insights     `json:"insights,omitempty"`
	Ads              *api.AdsResult        `json:"ads,omitempty"`
	AdsError         string                `json:"ads_error,omitempty"`
	Template         *insight.ToolTemplate `json:"template,omitempty"`
	TemplateError    string                `json:"template_error,omitempty"`
	Cached           bool                  `json:"cached"`
}

// RankResult is the outcome of ranking caller-supplied candidates
type RankResult struct {
	Keyword          string              `json:"keyword"`
	Entries          []opportunity.Entry `json:"entries"`
	OpportunityCount int                 `json:"opportunity_count"`
}

type Status struct {
	Analyses         uint64              `json:"analyses"`
	Failures         uint64              `json:"failures"`
	ProviderRequests uint64              `json:"provider_requests"`
	ProviderFailures uint64              `json:"provider_failures"`
	AIEnabled        bool                `json:"ai_enabled"`
	Cache            *storage.CacheStats `json:"cache,omitempty"`
}

type AnalyzerConfig struct {
	LocationCode int
	LanguageCode string
	// MaxOpportunities caps ranked opportunities per analysis
	MaxOpportunities int
	// AdsSearch adds the paid ads landscape when the client supports it
	AdsSearch bool
}

type Analyzer struct {
	client    api.MetricsClient
	generator InsightGenerator
	cache     *storage.MetricsCache
	config    AnalyzerConfig
	log       *logger.Logger

	analyses uint64
	failures uint64
}

// NewAnalyzer wires the analysis pipeline. generator and cache may be nil,
// which skips the AI sections and caching respectively.
func NewAnalyzer(client api.MetricsClient, generator InsightGenerator, cache *storage.MetricsCache, config AnalyzerConfig) *Analyzer {
	return &Analyzer{
		client:    client,
		generator: generator,
		cache:     cache,
		config:    config,
		log:       logger.WithComponent("analyzer"),
	}
}

// Analyze runs a live analysis. The provider reports keywords in lower case,
// so the seed is matched in lower case too.
func (a *Analyzer) Analyze(ctx context.Context, keyword string) (*Analysis, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	if a.client == nil {
		return nil, a.fail(fmt.Errorf("%w: metrics provider not configured", ErrAnalysisFailed))
	}

	start := time.Now()
	log := a.log.WithField("keyword", keyword)

	records, cached, err := a.fetch(ctx, keyword)
	if err != nil {
		log.WithError(err).Error("Metrics fetch failed")
		return nil, a.fail(fmt.Errorf("%w: %w", ErrAnalysisFailed, err))
	}

	ranking, err := opportunity.Analyze(keyword, records, opportunity.Options{Limit: a.config.MaxOpportunities})
	if err != nil {
		log.WithError(err).Warn("Ranking failed")
		return nil, a.fail(err)
	}

	analysis := &Analysis{
		ID:               uuid.New().String(),
		Keyword:          keyword,
		CreatedAt:        time.Now().UTC(),
		Entries:          ranking.Entries(),
		OpportunityCount: len(ranking.Opportunities),
		Cached:           cached,
	}

	if searcher, ok := a.client.(api.AdsSearcher); ok && a.config.AdsSearch {
		ads, err := searcher.AdsSearch(ctx, keyword)
		if err != nil {
			log.WithError(err).Warn("Ads search failed")
			analysis.AdsError = err.Error()
		} else {
			analysis.Ads = ads
		}
	}

	if a.generator != nil {
		insights, err := a.generator.Insights(ctx, ranking)
		if err != nil {
			log.WithError(err).Error("Insight generation failed")
			return nil, a.fail(fmt.Errorf("%w: %w", ErrAnalysisFailed, err))
		}
		analysis.Insights = insights

		template, err := a.generator.Template(ctx, keyword, ranking, insights)
		if err != nil {
			log.WithError(err).Warn("Template generation failed")
			analysis.TemplateError = err.Error()
		} else {
			analysis.Template = template
		}
	}

	atomic.AddUint64(&a.analyses, 1)
	log.WithFields(map[string]interface{}{
		"analysis_id":   analysis.ID,
		"opportunities": analysis.OpportunityCount,
		"cached":        cached,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Analysis completed")

	return analysis, nil
}

// Rank scores caller-supplied provider records without contacting any provider
func (a *Analyzer) Rank(seed string, payload []byte, limit int) (*RankResult, error) {
	records, err := opportunity.DecodeCandidates(payload)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = a.config.MaxOpportunities
	}
	ranking, err := opportunity.Analyze(seed, records, opportunity.Options{Limit: limit})
	if err != nil {
		return nil, err
	}

	return &RankResult{
		Keyword:          ranking.Baseline.Keyword,
		Entries:          ranking.Entries(),
		OpportunityCount: len(ranking.Opportunities),
	}, nil
}

func (a *Analyzer) Status() Status {
	status := Status{
		Analyses:  atomic.LoadUint64(&a.analyses),
		Failures:  atomic.LoadUint64(&a.failures),
		AIEnabled: a.generator != nil,
	}
	if reporter, ok := a.client.(api.StatsReporter); ok {
		status.ProviderRequests, status.ProviderFailures = reporter.Stats()
	}
	if a.cache != nil {
		stats := a.cache.Stats()
		status.Cache = &stats
	}
	return status
}

func (a *Analyzer) fetch(ctx context.Context, keyword string) ([]opportunity.RawKeyword, bool, error) {
	key := storage.MetricsKey(a.config.LocationCode, a.config.LanguageCode, keyword)
	if a.cache != nil {
		if records, ok := a.cache.Get(key); ok {
			return records, true, nil
		}
	}

	records, err := a.client.RelatedKeywords(ctx, keyword)
	if err != nil {
		return nil, false, err
	}

	if a.cache != nil {
		a.cache.Put(key, records)
	}
	return records, false, nil
}

func (a *Analyzer) fail(err error) error {
	atomic.AddUint64(&a.failures, 1)
	return err
}

// Close releases the metrics cache sweeper
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}
