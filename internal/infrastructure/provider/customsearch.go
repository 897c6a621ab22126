package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kvibe/internal/config"
	"kvibe/internal/search"
)

const customSearchMaxNum = 10

// CustomSearch queries the Google Custom Search JSON API.
type CustomSearch struct {
	endpoint string
	apiKey   string
	engineID string
	client   *http.Client
	logger   *slog.Logger
}

var _ search.Provider = (*CustomSearch)(nil)

// NewCustomSearch wires API credentials and an optional HTTP client.
func NewCustomSearch(cfg config.CustomSearchConfig, client *http.Client, logger *slog.Logger) *CustomSearch {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CustomSearch{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		client:   client,
		logger:   logger,
	}
}

// Name identifies the provider inside the registry.
func (c *CustomSearch) Name() string {
	return "customsearch"
}

type customSearchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		CseThumbnail []struct {
			Src string `json:"src"`
		} `json:"cse_thumbnail"`
		CseImage []struct {
			Src string `json:"src"`
		} `json:"cse_image"`
	} `json:"pagemap"`
}

// Search runs one query. FreshOnly maps to dateRestrict=d1, the API's
// last-24-hours filter. The API caps num at 10.
func (c *CustomSearch) Search(ctx context.Context, q search.Query) ([]search.Candidate, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, fmt.Errorf("custom search credentials missing")
	}

	num := q.Limit
	if num <= 0 || num > customSearchMaxNum {
		num = customSearchMaxNum
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", q.Terms)
	params.Set("num", strconv.Itoa(num))
	if q.FreshOnly {
		params.Set("dateRestrict", "d1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("custom search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("custom search returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body struct {
		Items []customSearchItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode custom search response: %w", err)
	}

	candidates := make([]search.Candidate, 0, len(body.Items))
	for _, item := range body.Items {
		if item.Link == "" {
			continue
		}

		source := item.DisplayLink
		if source == "" {
			source = "Google Search"
		}

		candidates = append(candidates, search.Candidate{
			Link:       canonicalLink(item.Link),
			Title:      cleanText(item.Title),
			Snippet:    cleanText(item.Snippet),
			SourceName: source,
			ImageURL:   previewFromPagemap(item),
		})
	}

	return candidates, nil
}

func previewFromPagemap(item customSearchItem) string {
	if len(item.Pagemap.CseImage) > 0 {
		if u := httpsOnly(item.Pagemap.CseImage[0].Src); u != "" {
			return u
		}
	}
	if len(item.Pagemap.CseThumbnail) > 0 {
		return httpsOnly(item.Pagemap.CseThumbnail[0].Src)
	}
	return ""
}
