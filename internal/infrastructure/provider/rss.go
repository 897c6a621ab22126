package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"kvibe/internal/search"
)

// RSS pulls candidates from configured feeds. Feeds are not searchable, so the
// query terms are ignored; Limit and FreshOnly still apply per feed.
type RSS struct {
	feeds  []string
	parser *gofeed.Parser
	logger *slog.Logger
	now    func() time.Time
}

var _ search.Provider = (*RSS)(nil)

// NewRSS wires feed URLs and an optional HTTP client.
func NewRSS(feeds []string, client *http.Client, logger *slog.Logger) *RSS {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	} else {
		parser.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RSS{feeds: feeds, parser: parser, logger: logger, now: time.Now}
}

// Name identifies the provider inside the registry.
func (r *RSS) Name() string {
	return "rss"
}

// Search walks every configured feed. A feed that fails to parse is logged and
// skipped; the remaining feeds still contribute. Only when every feed failed
// does the query itself fail, matching what a single dead upstream means for
// the other adapters.
func (r *RSS) Search(ctx context.Context, q search.Query) ([]search.Candidate, error) {
	threshold := r.now().Add(-24 * time.Hour)

	var candidates []search.Candidate
	failed := 0
	for _, feedURL := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failed++
			if r.logger != nil {
				r.logger.Warn("feed skipped", "feed", feedURL, "error", err)
			}
			continue
		}

		taken := 0
		for _, item := range feed.Items {
			if q.Limit > 0 && taken >= q.Limit {
				break
			}
			if item.Link == "" {
				continue
			}

			var published time.Time
			if item.PublishedParsed != nil {
				published = *item.PublishedParsed
			}
			if q.FreshOnly && !published.IsZero() && published.Before(threshold) {
				continue
			}

			candidate := search.Candidate{
				Link:        canonicalLink(item.Link),
				Title:       cleanText(item.Title),
				Snippet:     cleanText(item.Description),
				SourceName:  feed.Title,
				PublishedAt: published,
			}
			if item.Image != nil {
				candidate.ImageURL = httpsOnly(item.Image.URL)
			}
			candidates = append(candidates, candidate)
			taken++
		}
	}

	if failed > 0 && failed == len(r.feeds) {
		return nil, fmt.Errorf("all %d feeds failed", len(r.feeds))
	}

	return candidates, nil
}
