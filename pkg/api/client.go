package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"keyword-radar/pkg/logger"
	"keyword-radar/pkg/opportunity"
)

// DataForSEO endpoints used for keyword research
const (
	EndpointKeywordsForKeywords = "/keywords_data/google_ads/keywords_for_keywords/live"
	EndpointSearchVolume        = "/keywords_data/google_ads/search_volume/live"
	EndpointAdsSearch           = "/serp/google/ads_search/live/advanced"
)

// Request defaults
const (
	DefaultLocationCode = 2840 // United States
	DefaultLanguageCode = "en"
	DefaultMaxKeywords  = 100
	SuggestionDepth     = 3
	DefaultAdsDevice    = "desktop"
	DefaultAdsOS        = "windows"
)

// ClientConfig configures the DataForSEO client
type ClientConfig struct {
	BaseURL      string
	Login        string
	Password     string
	LocationCode int
	LanguageCode string

	// MaxKeywords caps the seed plus suggestions sent to the search volume endpoint
	MaxKeywords int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	// MinInterval spaces consecutive provider requests
	MinInterval time.Duration

	// BreakerFailures consecutive provider failures open the circuit for BreakerReset
	BreakerFailures int
	BreakerReset    time.Duration

	// Dial overrides the network dialer, used by tests
	Dial fasthttp.DialFunc
}

type keywordsForKeywordsTask struct {
	Keywords             []string `json:"keywords"`
	LocationCode         int      `json:"location_code"`
	LanguageCode         string   `json:"language_code"`
	IncludeSeedKeyword   bool     `json:"include_seed_keyword"`
	IncludeSerpInfo      bool     `json:"include_serp_info"`
	IncludeRelatedSearch bool     `json:"include_related_search"`
	Depth                int      `json:"depth"`
	Limit                int      `json:"limit"`
}

type searchVolumeTask struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code"`
	LanguageCode string   `json:"language_code"`
}

type adsSearchTask struct {
	SearchQuery  string `json:"search_query"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device"`
	OS           string `json:"os"`
}

type dataForSEOClient struct {
	config    ClientConfig
	client    *fasthttp.Client
	authToken string
	parser    *DataForSEOParser
	retry     *SimpleRetry
	executor  *SequentialExecutor
	breaker   *CircuitBreaker
	log       *logger.Logger
	secLog    *logger.SecurityLogger

	totalRequests  uint64
	failedRequests uint64
}

// NewDataForSEOClient creates a metrics client using HTTP Basic auth
func NewDataForSEOClient(config ClientConfig) (MetricsClient, error) {
	if config.Login == "" || config.Password == "" {
		return nil, ErrMissingCredentials
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("dataforseo base URL is required")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.LocationCode == 0 {
		config.LocationCode = DefaultLocationCode
	}
	if config.LanguageCode == "" {
		config.LanguageCode = DefaultLanguageCode
	}
	if config.MaxKeywords <= 0 {
		config.MaxKeywords = DefaultMaxKeywords
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.BreakerReset == 0 {
		config.BreakerReset = 30 * time.Second
	}

	client := &fasthttp.Client{
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxConnsPerHost:     16,
		MaxIdleConnDuration: 90 * time.Second,
		Dial:                config.Dial,
	}

	credentials := config.Login + ":" + config.Password
	secLog := logger.GetSecurityLogger()
	secLog.SafeInfo("DataForSEO client configured", map[string]interface{}{
		"base_url":      config.BaseURL,
		"login":         config.Login,
		"location_code": config.LocationCode,
		"language_code": config.LanguageCode,
	})

	return &dataForSEOClient{
		config:    config,
		client:    client,
		authToken: base64.StdEncoding.EncodeToString([]byte(credentials)),
		parser:    NewDataForSEOParser(),
		retry:     NewSimpleRetry(config.MaxRetries, config.RetryDelay),
		executor:  NewSequentialExecutor(config.MinInterval),
		breaker:   NewCircuitBreaker(config.BreakerFailures, config.BreakerReset),
		log:       logger.WithComponent("dataforseo_client"),
		secLog:    secLog,
	}, nil
}

// RelatedKeywords fetches suggestions for the seed, then search volume for
// the seed and every suggestion. Suggestions missing from the volume
// response keep their suggestion-stage metrics.
func (c *dataForSEOClient) RelatedKeywords(ctx context.Context, seed string) ([]opportunity.RawKeyword, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("seed keyword is required")
	}

	start := time.Now()
	log := c.log.WithField("seed", seed)
	log.Debug("Fetching keyword suggestions")

	var suggestions []opportunity.RawKeyword
	err := c.post(ctx, EndpointKeywordsForKeywords, keywordsForKeywordsTask{
		Keywords:             []string{seed},
		LocationCode:         c.config.LocationCode,
		LanguageCode:         c.config.LanguageCode,
		IncludeSeedKeyword:   true,
		IncludeSerpInfo:      true,
		IncludeRelatedSearch: true,
		Depth:                SuggestionDepth,
		Limit:                c.config.MaxKeywords,
	}, func(body []byte) (err error) {
		suggestions, err = c.parser.ParseKeywords(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("keyword suggestions failed: %w", err)
	}

	keywords := c.volumeKeywords(seed, suggestions)
	log.WithField("keywords_count", len(keywords)).Debug("Fetching search volume")

	var volumes []opportunity.RawKeyword
	err = c.post(ctx, EndpointSearchVolume, searchVolumeTask{
		Keywords:     keywords,
		LocationCode: c.config.LocationCode,
		LanguageCode: c.config.LanguageCode,
	}, func(body []byte) (err error) {
		volumes, err = c.parser.ParseKeywords(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search volume failed: %w", err)
	}

	records := mergeRecords(volumes, suggestions)

	log.WithFields(map[string]interface{}{
		"suggestions": len(suggestions),
		"records":     len(records),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Keyword metrics fetched")

	return records, nil
}

// volumeKeywords lists the seed first followed by unique suggestions, capped at MaxKeywords
func (c *dataForSEOClient) volumeKeywords(seed string, suggestions []opportunity.RawKeyword) []string {
	keywords := []string{seed}
	seen := map[string]struct{}{seed: {}}

	for _, s := range suggestions {
		if len(keywords) >= c.config.MaxKeywords {
			break
		}
		kw := strings.TrimSpace(s.Keyword)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}
	return keywords
}

func mergeRecords(primary, fallback []opportunity.RawKeyword) []opportunity.RawKeyword {
	merged := make([]opportunity.RawKeyword, 0, len(primary)+len(fallback))
	seen := make(map[string]struct{}, len(primary))

	for _, r := range primary {
		seen[strings.TrimSpace(r.Keyword)] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range fallback {
		if _, ok := seen[strings.TrimSpace(r.Keyword)]; ok {
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// AdsSearch fetches the paid ads currently shown for keyword
func (c *dataForSEOClient) AdsSearch(ctx context.Context, keyword string) (*AdsResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is required")
	}

	task := adsSearchTask{
		SearchQuery:  keyword,
		LocationCode: c.config.LocationCode,
		LanguageCode: c.config.LanguageCode,
		Device:       DefaultAdsDevice,
		OS:           DefaultAdsOS,
	}

	var ads []Ad
	err := c.post(ctx, EndpointAdsSearch, task, func(body []byte) (err error) {
		ads, err = c.parser.ParseAds(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ads search failed: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"keyword": keyword,
		"ads":     len(ads),
	}).Debug("Ads fetched")

	return &AdsResult{
		SearchQuery:  keyword,
		LocationCode: task.LocationCode,
		LanguageCode: task.LanguageCode,
		Device:       task.Device,
		Ads:          ads,
	}, nil
}

// post sends one task through the executor, retry and circuit breaker.
// parse runs inside the retry loop so provider-level errors are classified too.
func (c *dataForSEOClient) post(ctx context.Context, endpoint string, task interface{}, parse func(body []byte) error) error {
	payload, err := json.Marshal([]interface{}{task})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	err = c.executor.Execute(ctx, func() error {
		return c.retry.Execute(ctx, func() error {
			return c.breaker.Execute(ctx, func() error {
				body, err := c.do(endpoint, payload)
				if err != nil {
					return err
				}
				return parse(body)
			})
		})
	})
	if err != nil {
		atomic.AddUint64(&c.failedRequests, 1)
		c.secLog.SafeError("DataForSEO request failed", err, map[string]interface{}{
			"endpoint": c.config.BaseURL + endpoint,
		})
		return err
	}
	return nil
}

func (c *dataForSEOClient) do(endpoint string, payload []byte) ([]byte, error) {
	atomic.AddUint64(&c.totalRequests, 1)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "keyword-radar/1.0")
	req.Header.Set("Authorization", "Basic "+c.authToken)
	req.SetBody(payload)

	if err := c.client.DoTimeout(req, resp, c.config.Timeout); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: string(resp.Body()[:min(len(resp.Body()), 200)])}
	}

	// resp is released on return
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// Stats returns the number of HTTP requests sent and the number of provider calls that failed
func (c *dataForSEOClient) Stats() (total, failed uint64) {
	return atomic.LoadUint64(&c.totalRequests), atomic.LoadUint64(&c.failedRequests)
}
