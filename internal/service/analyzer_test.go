package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"keyword-radar/pkg/api"
	"keyword-radar/pkg/insight"
	"keyword-radar/pkg/opportunity"
	"keyword-radar/pkg/storage"
)

type fakeClient struct {
	records []opportunity.RawKeyword
	err     error
	calls   int
	seeds   []string
}

func (c *fakeClient) RelatedKeywords(_ context.Context, seed string) ([]opportunity.RawKeyword, error) {
	c.calls++
	c.seeds = append(c.seeds, seed)
	return c.records, c.err
}

type fakeAdsClient struct {
	fakeClient
	ads    *api.AdsResult
	adsErr error
}

func (c *fakeAdsClient) AdsSearch(_ context.Context, keyword string) (*api.AdsResult, error) {
	if c.adsErr != nil {
		return nil, c.adsErr
	}
	return c.ads, nil
}

type fakeGenerator struct {
	insightsErr error
	templateErr error
}

func (g *fakeGenerator) Insights(_ context.Context, ranking *opportunity.Ranking) (*insight.Insights, error) {
	if g.insightsErr != nil {
		return nil, g.insightsErr
	}
	return &insight.Insights{Markdown: "## " + ranking.Baseline.Keyword, HTML: "<h2>" + ranking.Baseline.Keyword + "</h2>"}, nil
}

func (g *fakeGenerator) Template(_ context.Context, keyword string, _ *opportunity.Ranking, _ *insight.Insights) (*insight.ToolTemplate, error) {
	if g.templateErr != nil {
		return nil, g.templateErr
	}
	return &insight.ToolTemplate{Name: keyword + " tool", Description: "d"}, nil
}

func f64(v float64) *float64 { return &v }

func loansRecords() []opportunity.RawKeyword {
	return []opportunity.RawKeyword{
		{Keyword: "loans", SearchVolume: f64(10000), CPC: f64(4), CompetitionIndex: f64(80)},
		{Keyword: "loan calculator", SearchVolume: f64(3000), CPC: f64(1.2), CompetitionIndex: f64(20)},
		{Keyword: "bad credit loans", SearchVolume: f64(2000), CPC: f64(6), CompetitionIndex: f64(90)},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	client := &fakeClient{records: loansRecords()}
	analyzer := NewAnalyzer(client, &fakeGenerator{}, nil, AnalyzerConfig{MaxOpportunities: 10})

	analysis, err := analyzer.Analyze(context.Background(), "  loans ")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if _, err := uuid.Parse(analysis.ID); err != nil {
		t.Errorf("Expected UUID id, got %q", analysis.ID)
	}
	if analysis.Keyword != "loans" {
		t.Errorf("Expected trimmed keyword, got %q", analysis.Keyword)
	}
	if analysis.OpportunityCount != 1 || len(analysis.Entries) != 2 {
		t.Fatalf("Expected baseline plus 1 opportunity, got %d entries", len(analysis.Entries))
	}
	if !analysis.Entries[0].Baseline || analysis.Entries[1].Keyword != "loan calculator" {
		t.Errorf("Unexpected entries: %+v", analysis.Entries)
	}
	if analysis.Insights == nil || analysis.Template == nil || analysis.TemplateError != "" {
		t.Errorf("Expected insights and template, got %+v", analysis)
	}
}

func TestAnalyzer_Errors(t *testing.T) {
	providerErr := errors.New("connection refused")

	tests := []struct {
		name      string
		keyword   string
		client    *fakeClient
		generator InsightGenerator
		want      error
	}{
		{"empty keyword", "   ", &fakeClient{}, nil, ErrEmptyKeyword},
		{"provider failure", "loans", &fakeClient{err: providerErr}, nil, ErrAnalysisFailed},
		{"seed missing", "mortgage", &fakeClient{records: loansRecords()}, nil, opportunity.ErrSeedNotFound},
		{"insight failure", "loans", &fakeClient{records: loansRecords()}, &fakeGenerator{insightsErr: insight.ErrEmptyResponse}, ErrAnalysisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewAnalyzer(tt.client, tt.generator, nil, AnalyzerConfig{})
			_, err := analyzer.Analyze(context.Background(), tt.keyword)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	analyzer := NewAnalyzer(&fakeClient{err: providerErr}, nil, nil, AnalyzerConfig{})
	if _, err := analyzer.Analyze(context.Background(), "loans"); !errors.Is(err, providerErr) {
		t.Errorf("Expected provider cause to be kept, got %v", err)
	}
}

func TestAnalyzer_EmptyOpportunitiesIsSuccess(t *testing.T) {
	client := &fakeClient{records: []opportunity.RawKeyword{
		{Keyword: "loans", SearchVolume: f64(10000), CompetitionIndex: f64(10)},
		{Keyword: "payday loans", SearchVolume: f64(500), CompetitionIndex: f64(95)},
	}}
	analyzer := NewAnalyzer(client, nil, nil, AnalyzerConfig{})

	analysis, err := analyzer.Analyze(context.Background(), "loans")
	if err != nil {
		t.Fatalf("Expected success with zero opportunities, got %v", err)
	}
	if analysis.OpportunityCount != 0 || len(analysis.Entries) != 1 {
		t.Errorf("Expected only the baseline entry, got %+v", analysis.Entries)
	}
	if analysis.Insights != nil {
		t.Error("Expected no insights without a generator")
	}
}

func TestAnalyzer_TemplateFailureDegrades(t *testing.T) {
	analyzer := NewAnalyzer(&fakeClient{records: loansRecords()}, &fakeGenerator{templateErr: errors.New("invalid JSON")}, nil, AnalyzerConfig{})

	analysis, err := analyzer.Analyze(context.Background(), "loans")
	if err != nil {
		t.Fatalf("Expected analysis to succeed, got %v", err)
	}
	if analysis.Template != nil || analysis.TemplateError != "invalid JSON" {
		t.Errorf("Expected template error, got template=%v error=%q", analysis.Template, analysis.TemplateError)
	}
	if analysis.Insights == nil {
		t.Error("Expected insights to survive a template failure")
	}
}

func TestAnalyzer_CachesProviderRecords(t *testing.T) {
	client := &fakeClient{records: loansRecords()}
	cache := storage.NewMetricsCache(8, time.Hour)
	defer cache.Close()

	analyzer := NewAnalyzer(client, nil, cache, AnalyzerConfig{LocationCode: 2840, LanguageCode: "en"})

	first, err := analyzer.Analyze(context.Background(), "loans")
	if err != nil {
		t.Fatalf("First analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), "loans")
	if err != nil {
		t.Fatalf("Second analyze failed: %v", err)
	}

	if client.calls != 1 {
		t.Errorf("Expected 1 provider call, got %d", client.calls)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Expected only the second analysis to be cached, got %v/%v", first.Cached, second.Cached)
	}
	if first.ID == second.ID {
		t.Error("Expected distinct analysis ids")
	}

	status := analyzer.Status()
	if status.Analyses != 2 || status.Cache == nil || status.Cache.Hits != 1 {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestAnalyzer_Rank(t *testing.T) {
	analyzer := NewAnalyzer(nil, nil, nil, AnalyzerConfig{MaxOpportunities: 10})

	payload := []byte(`[
		{"keyword": "loans", "search_volume": 10000, "cpc": 4, "competition_index": 80},
		{"keyword": "loan calculator", "search_volume": "3000", "cpc": 1.2, "competition_index": 20},
		{"keyword": "student loans", "search_volume": 4000, "cpc": 2, "competition_index": 40}
	]`)

	result, err := analyzer.Rank("loans", payload, 1)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if result.OpportunityCount != 1 || len(result.Entries) != 2 {
		t.Errorf("Expected limit 1 to apply, got %+v", result.Entries)
	}

	if _, err := analyzer.Rank("loans", []byte(`{"keyword": "loans"}`), 0); !errors.Is(err, opportunity.ErrMalformedCandidates) {
		t.Errorf("Expected ErrMalformedCandidates, got %v", err)
	}
	if _, err := analyzer.Rank("mortgage", payload, 0); !errors.Is(err, opportunity.ErrSeedNotFound) {
		t.Errorf("Expected ErrSeedNotFound, got %v", err)
	}
}

func TestAnalyzer_LiveSeedMatchesLowercaseRecords(t *testing.T) {
	client := &fakeClient{records: []opportunity.RawKeyword{
		{Keyword: "personal loans", SearchVolume: f64(10000), CPC: f64(4), CompetitionIndex: f64(80)},
		{Keyword: "personal loan calculator", SearchVolume: f64(4000), CPC: f64(1), CompetitionIndex: f64(15)},
	}}
	analyzer := NewAnalyzer(client, nil, nil, AnalyzerConfig{})

	analysis, err := analyzer.Analyze(context.Background(), "  Personal Loans ")
	if err != nil {
		t.Fatalf("Expected capitalised seed to match provider records, got %v", err)
	}
	if analysis.Keyword != "personal loans" || !analysis.Entries[0].Baseline {
		t.Errorf("Unexpected baseline: keyword=%q entries=%+v", analysis.Keyword, analysis.Entries)
	}
	if len(client.seeds) != 1 || client.seeds[0] != "personal loans" {
		t.Errorf("Expected lowercased seed sent to provider, got %q", client.seeds)
	}

	// Supplied candidates are matched exactly
	payload := []byte(`[{"keyword": "personal loans", "search_volume": 100}]`)
	if _, err := analyzer.Rank("Personal Loans", payload, 0); !errors.Is(err, opportunity.ErrSeedNotFound) {
		t.Errorf("Expected case-sensitive Rank to miss the seed, got %v", err)
	}
}

func TestAnalyzer_AdsSection(t *testing.T) {
	ads := &api.AdsResult{SearchQuery: "loans", Ads: []api.Ad{{Title: "Fast Loans", RankAbsolute: 1}}}

	tests := []struct {
		name      string
		client    api.MetricsClient
		enabled   bool
		wantAds   bool
		wantError string
	}{
		{"ads returned", &fakeAdsClient{fakeClient: fakeClient{records: loansRecords()}, ads: ads}, true, true, ""},
		{"ads failure degrades", &fakeAdsClient{fakeClient: fakeClient{records: loansRecords()}, adsErr: errors.New("no search results")}, true, false, "no search results"},
		{"ads disabled", &fakeAdsClient{fakeClient: fakeClient{records: loansRecords()}, ads: ads}, false, false, ""},
		{"client without ads", &fakeClient{records: loansRecords()}, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewAnalyzer(tt.client, nil, nil, AnalyzerConfig{AdsSearch: tt.enabled})

			analysis, err := analyzer.Analyze(context.Background(), "loans")
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if (analysis.Ads != nil) != tt.wantAds {
				t.Errorf("Expected ads present=%v, got %+v", tt.wantAds, analysis.Ads)
			}
			if analysis.AdsError != tt.wantError {
				t.Errorf("Expected ads error %q, got %q", tt.wantError, analysis.AdsError)
			}
			if analysis.OpportunityCount != 1 {
				t.Errorf("Expected ranking unaffected by ads, got %d opportunities", analysis.OpportunityCount)
			}
		})
	}
}
