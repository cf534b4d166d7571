package service

import (
	"context"

	"keyword-radar/pkg/insight"
	"keyword-radar/pkg/opportunity"
)

// AnalysisService runs keyword analyses for the HTTP API and the CLI
type AnalysisService interface {
	Analyze(ctx context.Context, keyword string) (*Analysis, error)
	Rank(seed string, payload []byte, limit int) (*RankResult, error)
	Status() Status
}

// InsightGenerator produces the AI sections of an analysis
type InsightGenerator interface {
	Insights(ctx context.Context, ranking *opportunity.Ranking) (*insight.Insights, error)
	Template(ctx context.Context, keyword string, ranking *opportunity.Ranking, insights *insight.Insights) (*insight.ToolTemplate, error)
}
