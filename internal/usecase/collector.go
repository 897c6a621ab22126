package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"kvibe/internal/config"
	"kvibe/internal/domain"
	"kvibe/internal/ports"
	"kvibe/internal/search"
)

// minWorkBudget is the floor the startup delay must leave before the window
// deadline so the phase can still do its minimum necessary work.
const minWorkBudget = 30 * time.Second

// CollectResult summarizes one discovery run.
type CollectResult struct {
	Fetched       int `json:"fetched"`
	Upserted      int `json:"upserted"`
	Excluded      int `json:"excluded"`
	ItemFailures  int `json:"itemFailures"`
	QueryFailures int `json:"queryFailures"`
}

// CollectorDeps wires the discovery phase.
type CollectorDeps struct {
	Providers *search.Registry
	Queries   []config.QueryConfig
	Exclude   []string
	Raw       ports.RawStore
	Previews  ports.PreviewResolver
	// MaxDelay caps the randomized startup delay regardless of window width.
	MaxDelay time.Duration
	// Jitter picks a delay in [0, max); injectable so tests stay deterministic.
	Jitter func(max time.Duration) time.Duration
	// Wait sleeps respecting context cancellation; injectable for tests.
	Wait   func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

// Collector runs the discovery phase: query providers, normalize, upsert.
type Collector struct {
	providers *search.Registry
	queries   []config.QueryConfig
	exclude   []string
	raw       ports.RawStore
	previews  ports.PreviewResolver
	maxDelay  time.Duration
	jitter    func(max time.Duration) time.Duration
	wait      func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// NewCollector constructs the discovery component with sane defaults for the
// injectable pieces.
func NewCollector(deps CollectorDeps) *Collector {
	c := &Collector{
		providers: deps.Providers,
		queries:   deps.Queries,
		exclude:   deps.Exclude,
		raw:       deps.Raw,
		previews:  deps.Previews,
		maxDelay:  deps.MaxDelay,
		jitter:    deps.Jitter,
		wait:      deps.Wait,
		logger:    deps.Logger,
	}
	if c.jitter == nil {
		c.jitter = defaultJitter
	}
	if c.wait == nil {
		c.wait = waitFor
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run executes one discovery invocation. A failing query degrades to fewer
// results; a failing item is counted and skipped. Only a configuration-level
// problem (no queries, every query failed) is a phase error.
func (c *Collector) Run(ctx context.Context, now time.Time, deadline time.Time) (CollectResult, error) {
	var result CollectResult

	if c.providers == nil || len(c.queries) == 0 {
		return result, fmt.Errorf("collector has no queries configured")
	}

	if delay := c.startupDelay(now, deadline); delay > 0 {
		c.logger.Debug("startup delay", "delay", delay)
		if err := c.wait(ctx, delay); err != nil {
			return result, err
		}
	}

	seen := map[string]struct{}{}
	for _, q := range c.queries {
		provider, err := c.providers.Resolve(q.Provider)
		if err != nil {
			result.QueryFailures++
			c.logger.Warn("query skipped", "provider", q.Provider, "error", err)
			continue
		}

		candidates, err := provider.Search(ctx, search.Query{
			Terms:     q.Terms,
			Limit:     q.Limit,
			FreshOnly: q.FreshOnly,
		})
		if err != nil {
			result.QueryFailures++
			c.logger.Warn("query failed", "provider", q.Provider, "terms", q.Terms, "error", err)
			continue
		}

		for _, candidate := range candidates {
			if candidate.Link == "" || candidate.Title == "" {
				continue
			}
			if _, dup := seen[candidate.Link]; dup {
				continue
			}
			seen[candidate.Link] = struct{}{}
			result.Fetched++

			if c.excluded(candidate) {
				result.Excluded++
				continue
			}

			raw := domain.RawArticle{
				DedupKey:     candidate.Link,
				Title:        candidate.Title,
				Snippet:      candidate.Snippet,
				SourceName:   candidate.SourceName,
				ImageURL:     candidate.ImageURL,
				DiscoveredAt: now,
			}
			if raw.ImageURL == "" && c.previews != nil {
				if image, perr := c.previews.Resolve(ctx, raw.DedupKey); perr == nil {
					raw.ImageURL = image
				}
			}

			if err := c.raw.Upsert(ctx, raw); err != nil {
				result.ItemFailures++
				c.logger.Warn("upsert failed", "key", raw.DedupKey, "error", err)
				continue
			}
			result.Upserted++
		}
	}

	if result.QueryFailures == len(c.queries) {
		return result, fmt.Errorf("all %d discovery queries failed", len(c.queries))
	}

	return result, nil
}

// startupDelay bounds the jitter so the remaining budget after the delay is
// never below minWorkBudget, whatever the window width.
func (c *Collector) startupDelay(now, deadline time.Time) time.Duration {
	bound := c.maxDelay
	if remaining := deadline.Sub(now) - minWorkBudget; remaining < bound {
		bound = remaining
	}
	if bound <= 0 {
		return 0
	}
	return c.jitter(bound)
}

func (c *Collector) excluded(candidate search.Candidate) bool {
	if len(c.exclude) == 0 {
		return false
	}
	haystack := strings.ToLower(candidate.Title + " " + candidate.Snippet)
	for _, term := range c.exclude {
		if term == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func defaultJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
