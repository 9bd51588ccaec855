package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultTavilyEndpoint is Tavily's search API.
	DefaultTavilyEndpoint = "https://api.tavily.com/search"

	defaultDepth        = "basic"
	defaultMaxResults   = 3
	defaultHTTPTimeout  = 10 * time.Second
	defaultInitialDelay = time.Second
	maxBackoffDelay     = 30 * time.Second
)

// ErrMissingAPIKey is returned when the search provider has no key.
var ErrMissingAPIKey = errors.New("tavily: API key is missing")

// Result is a single search hit.
type Result struct {
	Title   string
	URL     string
	Content string
}

// Searcher executes a query and returns results.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Tavily calls the Tavily search API.
type Tavily struct {
	APIKey     string
	Depth      string
	MaxResults int
	Endpoint   string
	// InitialDelay is the first back-off after a 429; it doubles up to 30 s.
	InitialDelay time.Duration
	client       *http.Client
}

// NewTavily constructs a Tavily search provider. A nil client gets a 10 s timeout.
func NewTavily(apiKey string, depth string, maxResults int, client *http.Client) *Tavily {
	if depth == "" {
		depth = defaultDepth
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Tavily{
		APIKey:       apiKey,
		Depth:        depth,
		MaxResults:   maxResults,
		Endpoint:     DefaultTavilyEndpoint,
		InitialDelay: defaultInitialDelay,
		client:       client,
	}
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query to Tavily, backing off and retrying on 429 until ctx ends.
func (t *Tavily) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(tavilyRequest{Query: query, APIKey: t.APIKey, SearchDepth: t.Depth, MaxResults: t.MaxResults})
	if err != nil {
		return nil, errors.Wrap(err, "encode tavily request")
	}

	var resp *http.Response
	delay := t.InitialDelay
	if delay <= 0 {
		delay = defaultInitialDelay
	}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(), bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(err, "build tavily request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "tavily request")
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxBackoffDelay {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decode tavily response")
	}

	limit := t.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	results := make([]Result, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (t *Tavily) endpoint() string {
	if strings.TrimSpace(t.Endpoint) == "" {
		return DefaultTavilyEndpoint
	}
	return t.Endpoint
}
