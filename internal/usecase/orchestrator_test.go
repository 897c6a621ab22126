package usecase

import (
	"context"
	"testing"
	"time"

	"kvibe/internal/config"
	"kvibe/internal/domain"
	"kvibe/internal/search"
	"kvibe/internal/window"
)

func testOrchestrator(raw *memRawStore, live *memLiveStore, archive *memArchiveStore, provider *fakeProvider) *Orchestrator {
	collector := NewCollector(CollectorDeps{
		Providers: testRegistry(provider),
		Queries:   []config.QueryConfig{{Provider: provider.name, Terms: "k-pop"}},
		Raw:       raw,
	})
	enricher := NewEnricher(EnricherDeps{
		Raw:  raw,
		Live: live,
		Annotator: &fakeAnnotator{fn: func(domain.RawArticle) (domain.Annotation, error) {
			return domain.Annotation{Keywords: []string{}}, nil
		}},
	})
	publisher := NewPublisher(PublisherDeps{Raw: raw, Live: live, Archive: archive})
	return NewOrchestrator(window.Default(), collector, enricher, publisher, nil)
}

func TestOrchestratorStandby(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{name: "naver"}
	o := testOrchestrator(newMemRawStore(), &memLiveStore{}, &memArchiveStore{}, provider)

	now := time.Date(2026, time.March, 14, 13, 57, 0, 0, time.UTC)
	result, err := o.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if result.Phase != "standby" || result.Message == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if provider.calls != 0 {
		t.Fatal("standby must have no side effects")
	}
}

func TestOrchestratorDispatchesSinglePhase(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{name: "naver", candidates: []search.Candidate{
		{Link: "https://news.example.com/a", Title: "A"},
	}}
	raw := newMemRawStore()
	live := &memLiveStore{}
	o := testOrchestrator(raw, live, &memArchiveStore{}, provider)

	discovery := time.Date(2026, time.March, 14, 13, 5, 0, 0, time.UTC)
	result, err := o.RunOnce(context.Background(), discovery)
	if err != nil {
		t.Fatalf("discovery: %v", err)
	}
	if result.Phase != "discovery" || result.Discovery == nil || result.Analysis != nil || result.Release != nil {
		t.Fatalf("discovery run must carry only discovery results: %+v", result)
	}
	if len(live.articles) != 0 {
		t.Fatal("discovery must not touch the live store")
	}

	analysis := time.Date(2026, time.March, 14, 13, 25, 0, 0, time.UTC)
	result, err = o.RunOnce(context.Background(), analysis)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if result.Phase != "analysis" || result.Analysis == nil || result.Analysis.Enriched != 1 {
		t.Fatalf("unexpected analysis result: %+v", result)
	}

	release := time.Date(2026, time.March, 14, 13, 45, 0, 0, time.UTC)
	result, err = o.RunOnce(context.Background(), release)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if result.Phase != "release" || result.Release == nil || result.Release.Published != 1 {
		t.Fatalf("unexpected release result: %+v", result)
	}
	if result.Release.ArchiveRan {
		t.Fatal("archive must not run outside the archive hour")
	}
}

func TestOrchestratorArchiveAtDailyBoundary(t *testing.T) {
	t.Parallel()

	stamp := time.Now()
	live := &memLiveStore{articles: []domain.LiveArticle{
		{ID: 1, Title: "published", IsPublished: true, PublishedAt: &stamp},
	}}
	live.nextID = 1
	archive := &memArchiveStore{}
	o := testOrchestrator(newMemRawStore(), live, archive, &fakeProvider{name: "naver"})

	midnightRelease := time.Date(2026, time.March, 14, 0, 45, 0, 0, time.UTC)
	result, err := o.RunOnce(context.Background(), midnightRelease)
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if !result.Release.ArchiveRan || result.Release.Archived != 1 {
		t.Fatalf("unexpected archive result: %+v", result.Release)
	}
	if len(archive.runs) != 1 {
		t.Fatalf("expected one archive run, got %d", len(archive.runs))
	}
}
