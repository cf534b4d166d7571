package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const suggestionsBody = `{"status_code":20000,"status_message":"Ok.","tasks":[{"status_code":20000,"status_message":"Ok.","result":[
		{"keyword":"loans","search_volume":10000,"cpc":4.0,"competition":"HIGH","competition_index":80},
		{"keyword":"personal loans","search_volume":5000,"cpc":3.5,"competition":"MEDIUM","competition_index":60},
		{"keyword":"personal loans","search_volume":5000},
		{"keyword":"loan calculator","search_volume":3000,"cpc":1.2,"competition":"LOW","competition_index":20}
	]}]}`

const volumeBody = `{"status_code":20000,"status_message":"Ok.","tasks":[{"status_code":20000,"status_message":"Ok.","result":[
		{"keyword":"loans","search_volume":12000,"cpc":4.2,"competition":"HIGH","competition_index":81},
		{"keyword":"personal loans","search_volume":5400,"cpc":3.1,"competition":"MEDIUM","competition_index":58}
	]}]}`

const adsBody = `{"status_code":20000,"status_message":"Ok.","tasks":[{"status_code":20000,"status_message":"Ok.","result_count":1,"result":[
		{"keyword":"personal loans","items_count":3,"items":[
			{"type":"paid","rank_group":1,"rank_absolute":1,"position":"left","title":"Personal Loans From 5.99%","description":"Check your rate in minutes.","url":"https://lender.example.com/","highlighted":["personal loans"]},
			{"type":"paid","rank_group":2,"rank_absolute":3,"position":"left","title":"Compare Loan Offers","description":"No impact on credit score.","url":"https://compare.example.com/"},
			{"type":"paid","rank_group":3,"rank_absolute":4}
		]}
	]}]}`

type fakeProvider struct {
	mu       sync.Mutex
	requests map[string][][]byte
	handler  func(ctx *fasthttp.RequestCtx)
}

func (p *fakeProvider) serve(ctx *fasthttp.RequestCtx) {
	p.mu.Lock()
	if p.requests == nil {
		p.requests = make(map[string][][]byte)
	}
	body := append([]byte(nil), ctx.PostBody()...)
	p.requests[string(ctx.Path())] = append(p.requests[string(ctx.Path())], body)
	p.mu.Unlock()

	p.handler(ctx)
}

func (p *fakeProvider) calls(path string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[path]
}

func startProvider(t *testing.T, handler func(ctx *fasthttp.RequestCtx)) (*fakeProvider, fasthttp.DialFunc) {
	t.Helper()

	provider := &fakeProvider{handler: handler}
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: provider.serve}
	go server.Serve(ln)
	t.Cleanup(func() { ln.Close() })

	return provider, func(addr string) (net.Conn, error) { return ln.Dial() }
}

func testClientConfig(dial fasthttp.DialFunc) ClientConfig {
	return ClientConfig{
		BaseURL:     "http://dataforseo.test/v3",
		Login:       "user@example.com",
		Password:    "secret",
		MaxKeywords: 100,
		Timeout:     2 * time.Second,
		MaxRetries:  2,
		RetryDelay:  time.Millisecond,
		Dial:        dial,
	}
}

func defaultProviderHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	switch {
	case strings.HasSuffix(string(ctx.Path()), EndpointKeywordsForKeywords):
		ctx.SetBodyString(suggestionsBody)
	case strings.HasSuffix(string(ctx.Path()), EndpointSearchVolume):
		ctx.SetBodyString(volumeBody)
	case strings.HasSuffix(string(ctx.Path()), EndpointAdsSearch):
		ctx.SetBodyString(adsBody)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func TestNewDataForSEOClient_MissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		login    string
		password string
	}{
		{"no login", "", "secret"},
		{"no password", "user", ""},
		{"nothing", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataForSEOClient(ClientConfig{BaseURL: "http://x", Login: tt.login, Password: tt.password})
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("Expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func TestRelatedKeywords_TwoStepFetch(t *testing.T) {
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("user@example.com:secret"))
	var gotAuth string
	var authMu sync.Mutex

	provider, dial := startProvider(t, func(ctx *fasthttp.RequestCtx) {
		authMu.Lock()
		gotAuth = string(ctx.Request.Header.Peek("Authorization"))
		authMu.Unlock()
		defaultProviderHandler(ctx)
	})

	client, err := NewDataForSEOClient(testClientConfig(dial))
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	records, err := client.RelatedKeywords(context.Background(), "  loans ")
	if err != nil {
		t.Fatalf("RelatedKeywords failed: %v", err)
	}

	authMu.Lock()
	if gotAuth != wantAuth {
		t.Errorf("Expected Authorization %q, got %q", wantAuth, gotAuth)
	}
	authMu.Unlock()

	suggestCalls := provider.calls("/v3" + EndpointKeywordsForKeywords)
	if len(suggestCalls) != 1 {
		t.Fatalf("Expected 1 suggestions call, got %d", len(suggestCalls))
	}
	var suggestTasks []keywordsForKeywordsTask
	if err := json.Unmarshal(suggestCalls[0], &suggestTasks); err != nil {
		t.Fatalf("Invalid suggestions payload: %v", err)
	}
	if len(suggestTasks) != 1 || suggestTasks[0].Keywords[0] != "loans" {
		t.Errorf("Unexpected suggestions payload: %s", suggestCalls[0])
	}
	if suggestTasks[0].LocationCode != DefaultLocationCode || suggestTasks[0].LanguageCode != DefaultLanguageCode {
		t.Errorf("Expected default location and language, got %+v", suggestTasks[0])
	}
	if !suggestTasks[0].IncludeSeedKeyword || suggestTasks[0].Depth != SuggestionDepth {
		t.Errorf("Expected seed inclusion and depth %d, got %+v", SuggestionDepth, suggestTasks[0])
	}

	volumeCalls := provider.calls("/v3" + EndpointSearchVolume)
	if len(volumeCalls) != 1 {
		t.Fatalf("Expected 1 search volume call, got %d", len(volumeCalls))
	}
	var volumeTasks []searchVolumeTask
	if err := json.Unmarshal(volumeCalls[0], &volumeTasks); err != nil {
		t.Fatalf("Invalid search volume payload: %v", err)
	}
	wantKeywords := []string{"loans", "personal loans", "loan calculator"}
	if strings.Join(volumeTasks[0].Keywords, "|") != strings.Join(wantKeywords, "|") {
		t.Errorf("Expected volume keywords %v, got %v", wantKeywords, volumeTasks[0].Keywords)
	}

	// search volume records first, then suggestions it did not cover
	gotKeywords := make([]string, 0, len(records))
	for _, r := range records {
		gotKeywords = append(gotKeywords, r.Keyword)
	}
	if strings.Join(gotKeywords, "|") != "loans|personal loans|loan calculator" {
		t.Errorf("Unexpected merged records: %v", gotKeywords)
	}
	if records[0].SearchVolume == nil || *records[0].SearchVolume != 12000 {
		t.Errorf("Expected seed volume from search volume endpoint, got %v", records[0].SearchVolume)
	}
	if records[2].CPC == nil || *records[2].CPC != 1.2 {
		t.Errorf("Expected suggestion-stage cpc for loan calculator, got %v", records[2].CPC)
	}
}

func TestRelatedKeywords_CapsVolumeKeywords(t *testing.T) {
	provider, dial := startProvider(t, defaultProviderHandler)

	config := testClientConfig(dial)
	config.MaxKeywords = 2
	client, err := NewDataForSEOClient(config)
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	if _, err := client.RelatedKeywords(context.Background(), "loans"); err != nil {
		t.Fatalf("RelatedKeywords failed: %v", err)
	}

	var tasks []searchVolumeTask
	if err := json.Unmarshal(provider.calls("/v3" + EndpointSearchVolume)[0], &tasks); err != nil {
		t.Fatalf("Invalid search volume payload: %v", err)
	}
	if len(tasks[0].Keywords) != 2 {
		t.Errorf("Expected 2 keywords sent for volume, got %v", tasks[0].Keywords)
	}
}

func TestRelatedKeywords_RetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	failures := 1

	provider, dial := startProvider(t, func(ctx *fasthttp.RequestCtx) {
		mu.Lock()
		fail := failures > 0
		failures--
		mu.Unlock()
		if fail {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
			ctx.SetBodyString("upstream unavailable")
			return
		}
		defaultProviderHandler(ctx)
	})

	client, err := NewDataForSEOClient(testClientConfig(dial))
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	if _, err := client.RelatedKeywords(context.Background(), "loans"); err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if got := len(provider.calls("/v3" + EndpointKeywordsForKeywords)); got != 2 {
		t.Errorf("Expected 2 suggestion attempts, got %d", got)
	}

	total, failed := client.(StatsReporter).Stats()
	if total != 3 || failed != 0 {
		t.Errorf("Expected stats 3/0, got %d/%d", total, failed)
	}
}

func TestRelatedKeywords_PermanentErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(ctx *fasthttp.RequestCtx)
		check   func(err error) bool
	}{
		{
			name: "unauthorized",
			handler: func(ctx *fasthttp.RequestCtx) {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			},
			check: func(err error) bool {
				var statusErr *StatusError
				return errors.As(err, &statusErr) && statusErr.StatusCode == 401
			},
		},
		{
			name: "task level failure",
			handler: func(ctx *fasthttp.RequestCtx) {
				ctx.SetBodyString(`{"status_code":20000,"tasks":[{"status_code":40501,"status_message":"Invalid Field"}]}`)
			},
			check: func(err error) bool {
				var providerErr *ProviderError
				return errors.As(err, &providerErr) && providerErr.Code == 40501
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, dial := startProvider(t, tt.handler)
			client, err := NewDataForSEOClient(testClientConfig(dial))
			if err != nil {
				t.Fatalf("NewDataForSEOClient failed: %v", err)
			}

			_, err = client.RelatedKeywords(context.Background(), "loans")
			if !tt.check(err) {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := len(provider.calls("/v3" + EndpointKeywordsForKeywords)); got != 1 {
				t.Errorf("Expected no retry for permanent error, got %d attempts", got)
			}
		})
	}
}

func TestRelatedKeywords_EmptySeed(t *testing.T) {
	_, dial := startProvider(t, defaultProviderHandler)
	client, err := NewDataForSEOClient(testClientConfig(dial))
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	if _, err := client.RelatedKeywords(context.Background(), "   "); err == nil {
		t.Error("Expected error for blank seed")
	}
}

func TestAdsSearch(t *testing.T) {
	provider, dial := startProvider(t, defaultProviderHandler)
	client, err := NewDataForSEOClient(testClientConfig(dial))
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	searcher, ok := client.(AdsSearcher)
	if !ok {
		t.Fatal("Expected DataForSEO client to implement AdsSearcher")
	}

	result, err := searcher.AdsSearch(context.Background(), " personal loans ")
	if err != nil {
		t.Fatalf("AdsSearch failed: %v", err)
	}

	if result.SearchQuery != "personal loans" || result.LocationCode != DefaultLocationCode || result.Device != DefaultAdsDevice {
		t.Errorf("Unexpected search parameters: %+v", result)
	}
	if len(result.Ads) != 2 {
		t.Fatalf("Expected 2 ads (untitled item skipped), got %d", len(result.Ads))
	}
	first := result.Ads[0]
	if first.Title != "Personal Loans From 5.99%" || first.Position != "left" || first.RankAbsolute != 1 {
		t.Errorf("Unexpected first ad: %+v", first)
	}
	if result.Ads[1].RankAbsolute != 3 || result.Ads[1].Description != "No impact on credit score." {
		t.Errorf("Unexpected second ad: %+v", result.Ads[1])
	}

	calls := provider.calls("/v3" + EndpointAdsSearch)
	if len(calls) != 1 {
		t.Fatalf("Expected 1 ads request, got %d", len(calls))
	}
	var tasks []adsSearchTask
	if err := json.Unmarshal(calls[0], &tasks); err != nil || len(tasks) != 1 {
		t.Fatalf("Unexpected ads payload %s: %v", calls[0], err)
	}
	if tasks[0].SearchQuery != "personal loans" || tasks[0].LanguageCode != DefaultLanguageCode || tasks[0].OS != DefaultAdsOS {
		t.Errorf("Unexpected ads task: %+v", tasks[0])
	}
}

func TestAdsSearch_TaskError(t *testing.T) {
	_, dial := startProvider(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"status_code":20000,"tasks":[{"status_code":40102,"status_message":"No Search Results."}]}`)
	})
	client, err := NewDataForSEOClient(testClientConfig(dial))
	if err != nil {
		t.Fatalf("NewDataForSEOClient failed: %v", err)
	}

	_, err = client.(AdsSearcher).AdsSearch(context.Background(), "loans")
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) || providerErr.Code != 40102 {
		t.Fatalf("Expected task-level provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "No Search Results.") {
		t.Errorf("Expected status message in error, got %v", err)
	}
}
