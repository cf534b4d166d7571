package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"keyword-radar/pkg/opportunity"
)

const insightSystemPrompt = "You are a keyword analysis expert. Analyze the following keywords and provide insights about their monetization potential."

const templateSystemPrompt = "You are a product strategist who designs monetizable web tools from keyword research. Respond with strict JSON only."

// DefaultPromptOpportunities caps how many ranked keywords are quoted in a prompt
const DefaultPromptOpportunities = 10

var printer = message.NewPrinter(language.English)

// BuildInsightPrompt describes the seed and its top opportunities for the
// monetization insight request
func BuildInsightPrompt(ranking *opportunity.Ranking, limit int) string {
	if limit <= 0 {
		limit = DefaultPromptOpportunities
	}

	var sb strings.Builder
	seed := ranking.Baseline

	sb.WriteString(printer.Sprintf("Main keyword: %q\n", seed.Keyword))
	sb.WriteString(printer.Sprintf("- Monthly search volume: %d\n", seed.SearchVolume))
	sb.WriteString(printer.Sprintf("- CPC: $%.2f\n", seed.CPC))
	sb.WriteString(printer.Sprintf("- Competition: %s (index %.0f)\n", seed.Competition, seed.CompetitionIndex))
	sb.WriteString(printer.Sprintf("- Keyword difficulty: %.0f/100\n", seed.KeywordDifficulty))
	sb.WriteString(printer.Sprintf("- Trend: %+.1f%%\n", ranking.BaselineTrend))

	opportunities := ranking.Opportunities
	if len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}

	if len(opportunities) == 0 {
		sb.WriteString("\nNo related keywords with lower competition were found.\n")
	} else {
		sb.WriteString("\nRelated keyword opportunities, best first:\n")
		for i, o := range opportunities {
			m := o.Metric
			sb.WriteString(printer.Sprintf("%d. %q: volume %d, CPC $%.2f, competition %s, difficulty %.0f, trend %+.1f%% (%s), score %.0f. %s.\n",
				i+1, m.Keyword, m.SearchVolume, m.CPC, o.CompetitionLevel, m.KeywordDifficulty,
				o.TrendPercent, o.TrendLabel, o.OpportunityScore, o.Recommendation))
		}
	}

	sb.WriteString(`
Using the Hidden Money Door strategy (low-competition keywords that lead to high-value offers), write markdown with:
## Market Overview
## Top Opportunities
## Monetization Angles
## Content Ideas
## Risks
Keep it concise and specific to these keywords.`)

	return sb.String()
}

type marketData struct {
	Keyword       string              `json:"keyword"`
	SearchVolume  int                 `json:"search_volume"`
	CPC           float64             `json:"cpc"`
	Competition   string              `json:"competition"`
	Difficulty    float64             `json:"difficulty_score"`
	TrendPercent  float64             `json:"trend_percent"`
	Opportunities []opportunity.Entry `json:"opportunities"`
}

// BuildTemplatePrompt asks for a ToolTemplate grounded in the ranking and
// the previously generated insights
func BuildTemplatePrompt(keyword string, ranking *opportunity.Ranking, insights string, limit int) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", ErrKeywordRequired
	}
	if ranking == nil {
		return "", ErrMarketDataRequired
	}
	if strings.TrimSpace(insights) == "" {
		return "", ErrInsightsRequired
	}
	if limit <= 0 {
		limit = DefaultPromptOpportunities
	}

	entries := ranking.Entries()[1:]
	if len(entries) > limit {
		entries = entries[:limit]
	}

	data, err := json.MarshalIndent(marketData{
		Keyword:       ranking.Baseline.Keyword,
		SearchVolume:  ranking.Baseline.SearchVolume,
		CPC:           ranking.Baseline.CPC,
		Competition:   ranking.Baseline.Competition,
		Difficulty:    ranking.Baseline.KeywordDifficulty,
		TrendPercent:  ranking.BaselineTrend,
		Opportunities: entries,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode market data: %w", err)
	}

	return fmt.Sprintf(`Generate a comprehensive tool template for the keyword %q based on the following market data and AI insights.

Market Data:
%s

AI Insights:
%s

Create a template that maximizes the Hidden Money Door strategy, covering:
1. Target audience and their pain points
2. Content strategy that leverages low-cost content creation
3. Monetization methods with emphasis on high-value opportunities
4. Traffic generation from both organic and paid sources
5. Conversion optimization strategies
6. Implementation timeline and required resources
If an interactive calculator fits the keyword, include one.

%s`, keyword, data, strings.TrimSpace(insights), templateSchema), nil
}

const templateSchema = `Respond with one JSON object of this shape:
{
  "name": string,
  "description": string,
  "targetAudience": [string],
  "contentStrategy": {"topics": [string], "formats": [string], "platforms": [string]},
  "monetizationStrategy": {"primaryMethod": string, "secondaryMethods": [string], "estimatedRevenue": string},
  "trafficSources": {"organic": [string], "paid": [string], "social": [string]},
  "conversionStrategy": {"funnelStages": [string], "callsToAction": [string], "conversionPoints": [string]},
  "implementation": {"requiredResources": [string], "timeline": string, "metrics": [string]},
  "calculator": {
    "type": string, "title": string, "description": string,
    "fields": [{"name": string, "label": string, "type": "number"|"text"|"select", "defaultValue": any, "options": [string], "validation": {"min": number, "max": number, "required": bool, "pattern": string}}],
    "formulas": [{"name": string, "description": string, "formula": string, "variables": [string], "unit": string}],
    "displayOptions": {"showChart": bool, "chartType": string, "compareResults": bool, "showBreakdown": bool}
  }
}
The calculator key is optional.`
