package crawl

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kvibe/internal/ports"
)

const userAgent = "Mozilla/5.0 (compatible; kvibe/1.0)"

// Images that are site furniture rather than article previews.
var badImageExpr = regexp.MustCompile(`(?i)logo|icon|button|share|banner|thumb|profile|default|news_stand`)

// Extractor fetches an article page and pulls the best preview image from its
// metadata. Used only when the search provider gave no structured image.
type Extractor struct {
	client *http.Client
}

var _ ports.PreviewResolver = (*Extractor)(nil)

// NewExtractor wires an HTTP client; the default has a 5s timeout so a slow
// publisher page cannot eat the phase budget.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Extractor{client: client}
}

// Resolve returns an https preview image URL for the page, or "" when the page
// offers nothing usable. Fetch and parse failures are returned as errors; the
// caller treats them as "no image".
func (e *Extractor) Resolve(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	candidates := make([]string, 0, 2)
	if og, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
		candidates = append(candidates, og)
	}
	if tw, ok := doc.Find(`meta[name="twitter:image"]`).First().Attr("content"); ok {
		candidates = append(candidates, tw)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if !strings.HasPrefix(candidate, "https://") {
			continue
		}
		if badImageExpr.MatchString(candidate) {
			continue
		}
		return candidate, nil
	}

	return "", nil
}
