package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
	"kvibe/internal/search"
)

type memRawStore struct {
	items     map[string]domain.RawArticle
	failKeys  map[string]bool
	selectErr error
	deleteErr error
}

func newMemRawStore() *memRawStore {
	return &memRawStore{
		items:    map[string]domain.RawArticle{},
		failKeys: map[string]bool{},
	}
}

func (m *memRawStore) Upsert(_ context.Context, a domain.RawArticle) error {
	if m.failKeys[a.DedupKey] {
		return fmt.Errorf("store rejected %s", a.DedupKey)
	}
	if existing, ok := m.items[a.DedupKey]; ok {
		a.DiscoveredAt = existing.DiscoveredAt
		a.Promoted = existing.Promoted
	}
	m.items[a.DedupKey] = a
	return nil
}

func (m *memRawStore) SelectUnpromoted(_ context.Context, limit int) ([]domain.RawArticle, error) {
	if m.selectErr != nil {
		return nil, m.selectErr
	}
	var out []domain.RawArticle
	for _, a := range m.items {
		if !a.Promoted {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscoveredAt.After(out[j].DiscoveredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRawStore) MarkPromoted(_ context.Context, dedupKey string) error {
	a, ok := m.items[dedupKey]
	if !ok {
		return fmt.Errorf("raw article %s not found", dedupKey)
	}
	a.Promoted = true
	m.items[dedupKey] = a
	return nil
}

func (m *memRawStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var removed int64
	for key, a := range m.items {
		if a.DiscoveredAt.Before(cutoff) {
			delete(m.items, key)
			removed++
		}
	}
	return removed, nil
}

type memLiveStore struct {
	articles   []domain.LiveArticle
	nextID     int64
	insertErr  error
	publishErr error
	listErr    error
}

func (m *memLiveStore) Insert(_ context.Context, a domain.LiveArticle) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.nextID++
	a.ID = m.nextID
	m.articles = append(m.articles, a)
	return a.ID, nil
}

func (m *memLiveStore) PublishPending(_ context.Context, at time.Time) (int64, error) {
	if m.publishErr != nil {
		return 0, m.publishErr
	}
	var affected int64
	for i := range m.articles {
		if !m.articles[i].IsPublished {
			stamp := at
			m.articles[i].IsPublished = true
			m.articles[i].PublishedAt = &stamp
			affected++
		}
	}
	return affected, nil
}

func (m *memLiveStore) ListPublished(_ context.Context) ([]domain.LiveArticle, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.LiveArticle
	for _, a := range m.articles {
		if a.IsPublished {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memLiveStore) IncrementLikes(_ context.Context, id int64) error {
	for i := range m.articles {
		if m.articles[i].ID == id {
			m.articles[i].Likes++
			return nil
		}
	}
	return fmt.Errorf("live article %d: %w", id, ports.ErrNotFound)
}

type memArchiveStore struct {
	runs      [][]domain.ArchiveArticle
	appendErr error
}

func (m *memArchiveStore) Append(_ context.Context, snapshots []domain.ArchiveArticle) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runs = append(m.runs, snapshots)
	return nil
}

type fakeProvider struct {
	name       string
	candidates []search.Candidate
	err        error
	calls      int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(context.Context, search.Query) ([]search.Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeAnnotator struct {
	fn func(domain.RawArticle) (domain.Annotation, error)
}

func (f *fakeAnnotator) Annotate(_ context.Context, a domain.RawArticle) (domain.Annotation, error) {
	return f.fn(a)
}

type fakeResolver struct {
	image string
	err   error
}

func (f *fakeResolver) Resolve(context.Context, string) (string, error) {
	return f.image, f.err
}
