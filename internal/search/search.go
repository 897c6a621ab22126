package search

import (
	"context"
	"fmt"
	"time"
)

// Query carries all parameters for one provider invocation.
type Query struct {
	Terms string
	// Limit caps how many hits the provider should return; providers apply
	// their own default when it is zero.
	Limit int
	// FreshOnly restricts results to roughly the last 24 hours where the
	// upstream supports it; adapters without date filtering ignore it.
	FreshOnly bool
}

// Candidate is a normalized search hit before dedup and storage. Link is the
// canonicalized article URL and doubles as the dedup key downstream.
type Candidate struct {
	Link        string
	Title       string
	Snippet     string
	SourceName  string
	ImageURL    string
	PublishedAt time.Time
}

// Provider executes a search against one upstream and normalizes the hits.
// A provider failure affects only its own results, never the whole phase.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Candidate, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("search provider %s is not registered", name)
}
