package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

const defaultEnrichBatch = 6

// EnrichResult summarizes one analysis run.
type EnrichResult struct {
	Selected int `json:"selected"`
	Enriched int `json:"enriched"`
	Failed   int `json:"failed"`
}

// EnricherDeps wires the analysis phase.
type EnricherDeps struct {
	Raw       ports.RawStore
	Live      ports.LiveStore
	Annotator ports.Annotator
	BatchSize int
	Logger    *slog.Logger
}

// Enricher turns a bounded batch of raw articles into hidden live articles.
type Enricher struct {
	raw       ports.RawStore
	live      ports.LiveStore
	annotator ports.Annotator
	batchSize int
	logger    *slog.Logger
}

// NewEnricher constructs the analysis component.
func NewEnricher(deps EnricherDeps) *Enricher {
	e := &Enricher{
		raw:       deps.Raw,
		live:      deps.Live,
		annotator: deps.Annotator,
		batchSize: deps.BatchSize,
		logger:    deps.Logger,
	}
	if e.batchSize <= 0 {
		e.batchSize = defaultEnrichBatch
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run executes one analysis invocation. A failed model call skips the item
// without retrying; the raw article stays unpromoted so the next scheduled run
// picks it up again.
func (e *Enricher) Run(ctx context.Context) (EnrichResult, error) {
	var result EnrichResult

	// Selection is best-effort, not exclusive: an overlapping analysis
	// invocation can pick the same rows before this one marks them promoted.
	// The worst case is an extra similar live row, accepted instead of a
	// claim/lease scheme.
	batch, err := e.raw.SelectUnpromoted(ctx, e.batchSize)
	if err != nil {
		return result, fmt.Errorf("select batch: %w", err)
	}
	result.Selected = len(batch)

	for _, raw := range batch {
		annotation, err := e.annotator.Annotate(ctx, raw)
		if err != nil {
			result.Failed++
			e.logger.Warn("annotation failed", "key", raw.DedupKey, "error", err)
			continue
		}

		article := domain.LiveArticle{
			Artist:      annotation.Artist,
			Title:       raw.Title,
			Summary:     annotation.Summary,
			Keywords:    annotation.Keywords,
			Vibe:        annotation.Vibe,
			ImageURL:    raw.ImageURL,
			SourceName:  raw.SourceName,
			IsPublished: false,
		}

		id, err := e.live.Insert(ctx, article)
		if err != nil {
			result.Failed++
			e.logger.Warn("live insert failed", "key", raw.DedupKey, "error", err)
			continue
		}

		if err := e.raw.MarkPromoted(ctx, raw.DedupKey); err != nil {
			// The live row exists; a re-pick of this raw next cycle just
			// produces a duplicate, same as the selection race.
			e.logger.Warn("mark promoted failed", "key", raw.DedupKey, "error", err)
		}

		result.Enriched++
		e.logger.Debug("article enriched", "key", raw.DedupKey, "live_id", id)
	}

	return result, nil
}
