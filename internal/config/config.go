package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	DataForSEO DataForSEOConfig `mapstructure:"dataforseo"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataForSEOConfig configures the keyword metrics provider
type DataForSEOConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Login        string        `mapstructure:"login"`
	Password     string        `mapstructure:"password"`
	LocationCode int           `mapstructure:"location_code"`
	LanguageCode string        `mapstructure:"language_code"`
	MaxKeywords  int           `mapstructure:"max_keywords"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	MinInterval  time.Duration `mapstructure:"min_interval"`

	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerReset    time.Duration `mapstructure:"breaker_reset"`

	// AdsSearch adds the paid ads landscape to live analyses
	AdsSearch bool `mapstructure:"ads_search"`
}

// LLMConfig configures the text generation provider
type LLMConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type RankingConfig struct {
	MaxOpportunities int `mapstructure:"max_opportunities"`
	// PromptOpportunities caps how many ranked keywords are quoted in prompts
	PromptOpportunities int `mapstructure:"prompt_opportunities"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
