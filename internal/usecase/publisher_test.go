package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kvibe/internal/domain"
)

func TestPublisherPublishIsIdempotent(t *testing.T) {
	t.Parallel()

	live := &memLiveStore{articles: []domain.LiveArticle{
		{ID: 1, Title: "one"},
		{ID: 2, Title: "two"},
		{ID: 3, Title: "three"},
	}}
	live.nextID = 3
	p := NewPublisher(PublisherDeps{Raw: newMemRawStore(), Live: live, Archive: &memArchiveStore{}})

	now := time.Date(2026, time.March, 14, 13, 45, 0, 0, time.UTC)
	result, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Published != 3 {
		t.Fatalf("published = %d, want 3", result.Published)
	}
	for _, a := range live.articles {
		if !a.IsPublished || a.PublishedAt == nil || !a.PublishedAt.Equal(now) {
			t.Fatalf("article %d not properly published: %+v", a.ID, a)
		}
	}

	second, err := p.Run(context.Background(), now.Add(time.Hour), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Published != 0 {
		t.Fatalf("second publish must be a no-op, affected %d", second.Published)
	}
	for _, a := range live.articles {
		if !a.PublishedAt.Equal(now) {
			t.Fatalf("publishedAt must not move on repeat runs: %v", a.PublishedAt)
		}
	}
}

func TestPublisherRetentionCutoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 14, 13, 45, 0, 0, time.UTC)
	raw := newMemRawStore()
	raw.items["old"] = domain.RawArticle{DedupKey: "old", DiscoveredAt: now.Add(-25 * time.Hour)}
	raw.items["edge"] = domain.RawArticle{DedupKey: "edge", DiscoveredAt: now.Add(-24 * time.Hour)}
	raw.items["new"] = domain.RawArticle{DedupKey: "new", DiscoveredAt: now.Add(-time.Hour)}

	p := NewPublisher(PublisherDeps{Raw: raw, Live: &memLiveStore{}, Archive: &memArchiveStore{}})
	result, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.RawExpired != 1 {
		t.Fatalf("rawExpired = %d, want 1", result.RawExpired)
	}
	if _, ok := raw.items["old"]; ok {
		t.Fatal("raw older than the horizon must be deleted")
	}
	if _, ok := raw.items["edge"]; !ok {
		t.Fatal("only strictly-older raws are deleted")
	}
	if _, ok := raw.items["new"]; !ok {
		t.Fatal("fresh raws must survive retention")
	}
}

func TestPublisherArchiveSnapshots(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, time.March, 13, 23, 45, 0, 0, time.UTC)
	live := &memLiveStore{articles: []domain.LiveArticle{
		{ID: 1, Artist: "NewJeans", Title: "one", Keywords: []string{"a", "b", "c"},
			Vibe: domain.Vibe{Excitement: 80, Shock: 10, Sadness: 10},
			IsPublished: true, PublishedAt: &published},
		{ID: 2, Title: "hidden"},
	}}
	archive := &memArchiveStore{}
	p := NewPublisher(PublisherDeps{Raw: newMemRawStore(), Live: live, Archive: archive})

	now := time.Date(2026, time.March, 14, 0, 45, 0, 0, time.UTC)
	result, err := p.Run(context.Background(), now, true)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.ArchiveRan || result.Archived != 2 {
		t.Fatalf("unexpected archive result: %+v", result)
	}
	// The hidden article was published by step 1 of the same run, so the
	// snapshot covers everything currently published.
	if len(archive.runs) != 1 || len(archive.runs[0]) != 2 {
		t.Fatalf("unexpected archive contents: %+v", archive.runs)
	}
	snap := archive.runs[0][0]
	if snap.Artist != "NewJeans" || snap.Title != "one" || len(snap.Keywords) != 3 {
		t.Fatalf("descriptive fields must be copied verbatim: %+v", snap)
	}
	if !snap.ArchivedAt.Equal(now) {
		t.Fatalf("archivedAt = %v, want %v", snap.ArchivedAt, now)
	}

	// A second run within the archive hour appends a duplicate snapshot.
	second, err := p.Run(context.Background(), now.Add(time.Minute), true)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Archived != 2 || len(archive.runs) != 2 {
		t.Fatalf("archive is append-only and not deduplicated: %+v", second)
	}
}

func TestPublisherStepsAreIndependent(t *testing.T) {
	t.Parallel()

	published := time.Now()
	live := &memLiveStore{articles: []domain.LiveArticle{
		{ID: 1, Title: "pending"},
		{ID: 2, Title: "out", IsPublished: true, PublishedAt: &published},
	}}
	raw := newMemRawStore()
	raw.deleteErr = fmt.Errorf("lock timeout")
	archive := &memArchiveStore{appendErr: fmt.Errorf("archive unavailable")}

	p := NewPublisher(PublisherDeps{Raw: raw, Live: live, Archive: archive})
	result, err := p.Run(context.Background(), time.Now(), true)
	if err != nil {
		t.Fatalf("step failures are reported, not returned: %v", err)
	}
	if result.Published != 1 {
		t.Fatalf("publish must complete despite later failures: %+v", result)
	}
	if len(result.StepErrors) != 2 {
		t.Fatalf("expected 2 step errors, got %+v", result.StepErrors)
	}
}
