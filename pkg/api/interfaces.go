package api

import (
	"context"
	"errors"
	"fmt"

	"keyword-radar/pkg/opportunity"
)

// ErrMissingCredentials is returned when the provider login or password is empty
var ErrMissingCredentials = errors.New("dataforseo login and password are required")

// MetricsClient fetches raw keyword metrics for a seed keyword and its related keywords
type MetricsClient interface {
	RelatedKeywords(ctx context.Context, seed string) ([]opportunity.RawKeyword, error)
}

// AdsSearcher looks up the paid search landscape for a keyword
type AdsSearcher interface {
	AdsSearch(ctx context.Context, keyword string) (*AdsResult, error)
}

// AdsResult lists the ads served for one query in one market
type AdsResult struct {
	SearchQuery  string `json:"search_query"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device"`
	Ads          []Ad   `json:"ads"`
}

// Ad is a single paid result
type Ad struct {
	Type         string   `json:"type"`
	RankGroup    int      `json:"rank_group"`
	RankAbsolute int      `json:"rank_absolute"`
	Position     string   `json:"position"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Highlighted  []string `json:"highlighted,omitempty"`
}

// StatusError is a non-200 HTTP response from the provider
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// ProviderError is a provider-level failure reported inside a 200 response
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status_code %d: %s", e.Code, e.Message)
}

// StatsReporter is implemented by clients that count provider requests
type StatsReporter interface {
	Stats() (total, failed uint64)
}
