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

const (
	naverEndpoint       = "https://openapi.naver.com/v1/search/news.json"
	naverDefaultDisplay = 20
)

// Naver queries the Naver open-API news search.
type Naver struct {
	endpoint     string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       *slog.Logger
	now          func() time.Time
}

var _ search.Provider = (*Naver)(nil)

// NewNaver wires credentials and an optional HTTP client.
func NewNaver(cfg config.NaverConfig, client *http.Client, logger *slog.Logger) *Naver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Naver{
		endpoint:     naverEndpoint,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		client:       client,
		logger:       logger,
		now:          time.Now,
	}
}

// Name identifies the provider inside the registry.
func (n *Naver) Name() string {
	return "naver"
}

type naverItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

// Search runs one news query and normalizes the hits. With FreshOnly set,
// items older than 24 hours by pubDate are dropped.
func (n *Naver) Search(ctx context.Context, q search.Query) ([]search.Candidate, error) {
	if n.clientID == "" || n.clientSecret == "" {
		return nil, fmt.Errorf("naver credentials missing")
	}

	display := q.Limit
	if display <= 0 {
		display = naverDefaultDisplay
	}

	params := url.Values{}
	params.Set("query", q.Terms)
	params.Set("display", strconv.Itoa(display))
	params.Set("sort", "sim")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", n.clientID)
	req.Header.Set("X-Naver-Client-Secret", n.clientSecret)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naver search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("naver returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var body struct {
		Items []naverItem `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode naver response: %w", err)
	}

	threshold := n.now().Add(-24 * time.Hour)
	candidates := make([]search.Candidate, 0, len(body.Items))
	for _, item := range body.Items {
		link := item.OriginalLink
		if link == "" {
			link = item.Link
		}
		if link == "" {
			continue
		}

		var published time.Time
		if item.PubDate != "" {
			if parsed, perr := time.Parse(time.RFC1123Z, item.PubDate); perr == nil {
				published = parsed
			} else if n.logger != nil {
				n.logger.Debug("unparsable pubDate", "value", item.PubDate)
			}
		}
		if q.FreshOnly && !published.IsZero() && published.Before(threshold) {
			continue
		}

		candidates = append(candidates, search.Candidate{
			Link:        canonicalLink(link),
			Title:       cleanText(item.Title),
			Snippet:     cleanText(item.Description),
			SourceName:  "Naver News",
			PublishedAt: published,
		})
	}

	return candidates, nil
}
