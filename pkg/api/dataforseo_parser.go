package api

import (
	"encoding/json"
	"fmt"

	"keyword-radar/pkg/opportunity"
)

// StatusOK is the DataForSEO success code at response and task level
const StatusOK = 20000

// DataForSEOResponse is the envelope shared by every DataForSEO v3 endpoint
type DataForSEOResponse struct {
	Version       string           `json:"version"`
	StatusCode    int              `json:"status_code"`
	StatusMessage string           `json:"status_message"`
	Cost          float64          `json:"cost"`
	TasksCount    int              `json:"tasks_count"`
	TasksError    int              `json:"tasks_error"`
	Tasks         []DataForSEOTask `json:"tasks"`
}

// DataForSEOTask is one task result. Result items are decoded lazily
// because keyword endpoints differ in nesting.
type DataForSEOTask struct {
	ID            string            `json:"id"`
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Cost          float64           `json:"cost"`
	ResultCount   int               `json:"result_count"`
	Result        []json.RawMessage `json:"result"`
}

// DataForSEOParser turns provider envelopes into raw keyword records
type DataForSEOParser struct{}

// NewDataForSEOParser creates a new response parser
func NewDataForSEOParser() *DataForSEOParser {
	return &DataForSEOParser{}
}

// ParseKeywords extracts keyword records from the first task of a response.
// Result items are either keyword records or groups holding a "keywords" list.
func (p *DataForSEOParser) ParseKeywords(body []byte) ([]opportunity.RawKeyword, error) {
	task, err := p.firstTask(body)
	if err != nil {
		return nil, err
	}

	records := make([]opportunity.RawKeyword, 0, len(task.Result))
	for _, item := range task.Result {
		var group struct {
			Keywords []json.RawMessage `json:"keywords"`
		}
		if err := json.Unmarshal(item, &group); err == nil && group.Keywords != nil {
			records = append(records, p.decodeRecords(group.Keywords)...)
			continue
		}
		records = append(records, p.decodeRecords([]json.RawMessage{item})...)
	}

	return records, nil
}

// ParseAds extracts ads from the first task of a SERP response. Result items
// are either ads or SERP pages holding an "items" list.
func (p *DataForSEOParser) ParseAds(body []byte) ([]Ad, error) {
	task, err := p.firstTask(body)
	if err != nil {
		return nil, err
	}

	ads := make([]Ad, 0, len(task.Result))
	for _, item := range task.Result {
		var page struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(item, &page); err == nil && page.Items != nil {
			ads = append(ads, p.decodeAds(page.Items)...)
			continue
		}
		ads = append(ads, p.decodeAds([]json.RawMessage{item})...)
	}

	return ads, nil
}

func (p *DataForSEOParser) firstTask(body []byte) (*DataForSEOTask, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body from DataForSEO")
	}

	var resp DataForSEOResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode DataForSEO response: %w (response: %s)", err, string(body[:min(len(body), 200)]))
	}

	if resp.StatusCode != StatusOK {
		return nil, &ProviderError{Code: resp.StatusCode, Message: resp.StatusMessage}
	}

	if len(resp.Tasks) == 0 {
		return nil, fmt.Errorf("DataForSEO response contains no tasks")
	}

	task := resp.Tasks[0]
	if task.StatusCode != StatusOK {
		return nil, &ProviderError{Code: task.StatusCode, Message: task.StatusMessage}
	}
	return &task, nil
}

// decodeRecords skips anything that is not a keyword object with a keyword
func (p *DataForSEOParser) decodeRecords(items []json.RawMessage) []opportunity.RawKeyword {
	records := make([]opportunity.RawKeyword, 0, len(items))
	for _, item := range items {
		var record opportunity.RawKeyword
		if err := json.Unmarshal(item, &record); err != nil {
			continue
		}
		if record.Keyword == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}

// decodeAds skips items without a title or URL, such as empty SERP pages
func (p *DataForSEOParser) decodeAds(items []json.RawMessage) []Ad {
	ads := make([]Ad, 0, len(items))
	for _, item := range items {
		var ad Ad
		if err := json.Unmarshal(item, &ad); err != nil {
			continue
		}
		if ad.Title == "" && ad.URL == "" {
			continue
		}
		ads = append(ads, ad)
	}
	return ads
}
