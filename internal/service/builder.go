package service

import (
	"errors"
	"fmt"
	"strings"

	"keyword-radar/internal/config"
	"keyword-radar/pkg/api"
	"keyword-radar/pkg/insight"
	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/storage"
)

// AnalyzerBuilder assembles an Analyzer from loaded configuration.
// Missing provider credentials disable the matching stage instead of failing,
// so ranking of supplied candidates keeps working.
type AnalyzerBuilder struct {
	config    *config.Config
	client    api.MetricsClient
	generator InsightGenerator
	disableAI bool
	errors    []error
}

func NewAnalyzerBuilder(cfg *config.Config) *AnalyzerBuilder {
	b := &AnalyzerBuilder{config: cfg}
	if cfg == nil {
		b.errors = append(b.errors, fmt.Errorf("config cannot be nil"))
	}
	return b
}

// WithMetricsClient replaces the DataForSEO client
func (b *AnalyzerBuilder) WithMetricsClient(client api.MetricsClient) *AnalyzerBuilder {
	if client == nil {
		b.errors = append(b.errors, fmt.Errorf("metrics client cannot be nil"))
		return b
	}
	b.client = client
	return b
}

// WithGenerator replaces the Anthropic-backed insight generator
func (b *AnalyzerBuilder) WithGenerator(generator InsightGenerator) *AnalyzerBuilder {
	if generator == nil {
		b.errors = append(b.errors, fmt.Errorf("insight generator cannot be nil"))
		return b
	}
	b.generator = generator
	return b
}

// WithoutAI skips insight and template generation
func (b *AnalyzerBuilder) WithoutAI() *AnalyzerBuilder {
	b.disableAI = true
	return b
}

func (b *AnalyzerBuilder) Validate() error {
	if len(b.errors) == 0 {
		return nil
	}

	var errorMessages []string
	for _, err := range b.errors {
		errorMessages = append(errorMessages, err.Error())
	}
	return fmt.Errorf("analyzer configuration failed: %s", strings.Join(errorMessages, "; "))
}

func (b *AnalyzerBuilder) Build() (*Analyzer, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	log := logger.WithComponent("analyzer_builder")
	cfg := b.config

	// The cache key must name the market the client actually queries
	locationCode := cfg.DataForSEO.LocationCode
	if locationCode == 0 {
		locationCode = api.DefaultLocationCode
	}
	languageCode := cfg.DataForSEO.LanguageCode
	if languageCode == "" {
		languageCode = api.DefaultLanguageCode
	}

	client := b.client
	if client == nil {
		c, err := api.NewDataForSEOClient(api.ClientConfig{
			BaseURL:         cfg.DataForSEO.BaseURL,
			Login:           cfg.DataForSEO.Login,
			Password:        cfg.DataForSEO.Password,
			LocationCode:    locationCode,
			LanguageCode:    languageCode,
			MaxKeywords:     cfg.DataForSEO.MaxKeywords,
			Timeout:         cfg.DataForSEO.Timeout,
			MaxRetries:      cfg.DataForSEO.MaxRetries,
			RetryDelay:      cfg.DataForSEO.RetryDelay,
			MinInterval:     cfg.DataForSEO.MinInterval,
			BreakerFailures: cfg.DataForSEO.BreakerFailures,
			BreakerReset:    cfg.DataForSEO.BreakerReset,
		})
		switch {
		case errors.Is(err, api.ErrMissingCredentials):
			logger.GetSecurityLogger().SafeWarn("DataForSEO credentials incomplete, live analysis disabled", map[string]interface{}{
				"login":        cfg.DataForSEO.Login,
				"password_set": cfg.DataForSEO.Password != "",
			})
		case err != nil:
			return nil, fmt.Errorf("failed to create metrics client: %w", err)
		default:
			client = c
		}
	}

	var generator InsightGenerator
	switch {
	case b.disableAI || !cfg.LLM.Enabled:
		log.Info("AI insights disabled")
	case b.generator != nil:
		generator = b.generator
	default:
		caller, err := insight.NewAnthropicCaller(insight.CallerConfig{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			log.WithError(err).Warn("AI insights disabled")
		} else {
			generator = insight.NewGenerator(caller, cfg.Ranking.PromptOpportunities)
		}
	}

	var cache *storage.MetricsCache
	if cfg.Cache.Size > 0 {
		cache = storage.NewMetricsCache(cfg.Cache.Size, cfg.Cache.TTL)
	}

	return NewAnalyzer(client, generator, cache, AnalyzerConfig{
		LocationCode:     locationCode,
		LanguageCode:     languageCode,
		MaxOpportunities: cfg.Ranking.MaxOpportunities,
		AdsSearch:        cfg.DataForSEO.AdsSearch,
	}), nil
}
