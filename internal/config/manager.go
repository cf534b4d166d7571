package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. KEYWORD_RADAR_SERVER_PORT
const EnvPrefix = "KEYWORD_RADAR"

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads .env (if present), the optional config file and environment
// overrides, in increasing order of precedence.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	m.configPath = configPath
	m.setupViper(configPath)

	if configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}

	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The Anthropic SDK convention wins when the namespaced key is unset
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("dataforseo.base_url", "https://api.dataforseo.com/v3")
	v.SetDefault("dataforseo.login", "")
	v.SetDefault("dataforseo.password", "")
	v.SetDefault("dataforseo.location_code", 2840)
	v.SetDefault("dataforseo.language_code", "en")
	v.SetDefault("dataforseo.max_keywords", 100)
	v.SetDefault("dataforseo.timeout", 60*time.Second)
	v.SetDefault("dataforseo.max_retries", 2)
	v.SetDefault("dataforseo.retry_delay", time.Second)
	v.SetDefault("dataforseo.min_interval", 200*time.Millisecond)
	v.SetDefault("dataforseo.breaker_failures", 5)
	v.SetDefault("dataforseo.breaker_reset", 30*time.Second)
	v.SetDefault("dataforseo.ads_search", true)

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("ranking.max_opportunities", 10)
	v.SetDefault("ranking.prompt_opportunities", 10)

	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", time.Hour)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.time_format", "")
}

func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.DataForSEO.BaseURL == "" {
		return fmt.Errorf("dataforseo.base_url cannot be empty")
	}

	if config.DataForSEO.MaxKeywords <= 0 || config.DataForSEO.MaxKeywords > 1000 {
		return fmt.Errorf("dataforseo.max_keywords must be between 1 and 1000")
	}

	if config.DataForSEO.MaxRetries < 0 {
		return fmt.Errorf("dataforseo.max_retries cannot be negative")
	}

	if config.Ranking.MaxOpportunities <= 0 {
		return fmt.Errorf("ranking.max_opportunities must be positive")
	}

	if config.Ranking.PromptOpportunities <= 0 {
		return fmt.Errorf("ranking.prompt_opportunities must be positive")
	}

	if config.Cache.Size < 0 {
		return fmt.Errorf("cache.size cannot be negative")
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	if config.LLM.Enabled && config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}

	return nil
}

// loadDotEnv loads .env from the working directory without overriding
// variables already set in the environment
func loadDotEnv() error {
	path := os.Getenv(EnvPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
