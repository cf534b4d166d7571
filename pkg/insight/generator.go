package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/opportunity"
)

var (
	ErrKeywordRequired    = errors.New("keyword is required")
	ErrMarketDataRequired = errors.New("market data is required")
	ErrInsightsRequired   = errors.New("AI insights are required")
	ErrEmptyResponse      = errors.New("model returned empty content")
)

const maxTemplateAttempts = 3

// Insights is the generated monetization analysis
type Insights struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type Generator struct {
	caller      LLMCaller
	promptLimit int
	log         *logger.Logger
}

// NewGenerator creates a generator quoting at most promptLimit opportunities per prompt
func NewGenerator(caller LLMCaller, promptLimit int) *Generator {
	return &Generator{
		caller:      caller,
		promptLimit: promptLimit,
		log:         logger.WithComponent("insight_generator"),
	}
}

func (g *Generator) Insights(ctx context.Context, ranking *opportunity.Ranking) (*Insights, error) {
	if ranking == nil {
		return nil, ErrMarketDataRequired
	}
	if strings.TrimSpace(ranking.Baseline.Keyword) == "" {
		return nil, ErrKeywordRequired
	}

	raw, err := g.caller.Generate(ctx, insightSystemPrompt, BuildInsightPrompt(ranking, g.promptLimit))
	if err != nil {
		return nil, fmt.Errorf("insight generation failed: %w", err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("insight generation failed: %w", ErrEmptyResponse)
	}

	html, err := RenderMarkdown(text)
	if err != nil {
		return nil, err
	}

	g.log.WithFields(map[string]interface{}{
		"keyword": ranking.Baseline.Keyword,
		"chars":   len(text),
	}).Debug("Insights generated")

	return &Insights{Markdown: text, HTML: html}, nil
}

// Template asks for a ToolTemplate, feeding parse and validation problems
// back to the model on the next attempt
func (g *Generator) Template(ctx context.Context, keyword string, ranking *opportunity.Ranking, insights *Insights) (*ToolTemplate, error) {
	if insights == nil {
		return nil, ErrInsightsRequired
	}
	prompt, err := BuildTemplatePrompt(keyword, ranking, insights.Markdown, g.promptLimit)
	if err != nil {
		return nil, err
	}

	feedback := ""
	for attempt := 1; attempt <= maxTemplateAttempts; attempt++ {
		fullPrompt := prompt
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}

		raw, err := g.caller.Generate(ctx, templateSystemPrompt, fullPrompt)
		if err != nil {
			return nil, fmt.Errorf("template generation failed: %w", err)
		}

		last := attempt == maxTemplateAttempts
		log := g.log.WithField("attempt", attempt)

		raw = strings.TrimSpace(raw)
		if raw == "" {
			if last {
				return nil, fmt.Errorf("template generation failed: %w", ErrEmptyResponse)
			}
			log.Warn("Empty template response, retrying")
			feedback = "Your previous response was empty. Respond with valid JSON."
			continue
		}

		var template ToolTemplate
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), &template); err != nil {
			if last {
				return nil, fmt.Errorf("template generation failed json parse: %w", err)
			}
			log.WithError(err).Warn("Template response was not valid JSON, retrying")
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			continue
		}

		if err := template.Validate(); err != nil {
			if last {
				return nil, fmt.Errorf("template generation failed validation: %w", err)
			}
			log.WithError(err).Warn("Template failed validation, retrying")
			feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", strings.ReplaceAll(err.Error(), "\n", "; "))
			continue
		}

		return &template, nil
	}
	return nil, fmt.Errorf("template generation failed after retries")
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if parts := strings.SplitN(s, "\n", 2); len(parts) == 2 {
		s = parts[1]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
