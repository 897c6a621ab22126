package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

const defaultRawRetention = 24 * time.Hour

// ReleaseResult summarizes one release run.
type ReleaseResult struct {
	Published  int64    `json:"published"`
	RawExpired int64    `json:"rawExpired"`
	ArchiveRan bool     `json:"archiveRan"`
	Archived   int      `json:"archived"`
	StepErrors []string `json:"stepErrors,omitempty"`
}

// PublisherDeps wires the release phase.
type PublisherDeps struct {
	Raw       ports.RawStore
	Live      ports.LiveStore
	Archive   ports.ArchiveStore
	Retention time.Duration
	Logger    *slog.Logger
}

// Publisher flips hidden articles to visible, expires stale raw articles and
// snapshots the published set once a day.
type Publisher struct {
	raw       ports.RawStore
	live      ports.LiveStore
	archive   ports.ArchiveStore
	retention time.Duration
	logger    *slog.Logger
}

// NewPublisher constructs the release component.
func NewPublisher(deps PublisherDeps) *Publisher {
	p := &Publisher{
		raw:       deps.Raw,
		live:      deps.Live,
		archive:   deps.Archive,
		retention: deps.Retention,
		logger:    deps.Logger,
	}
	if p.retention <= 0 {
		p.retention = defaultRawRetention
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run executes the three release steps in order. The steps are independent: a
// failing step is recorded in StepErrors and the remaining steps still run.
func (p *Publisher) Run(ctx context.Context, now time.Time, archiveDue bool) (ReleaseResult, error) {
	var result ReleaseResult

	published, err := p.live.PublishPending(ctx, now)
	if err != nil {
		result.StepErrors = append(result.StepErrors, fmt.Sprintf("publish: %v", err))
		p.logger.Error("publish step failed", "error", err)
	} else {
		result.Published = published
	}

	expired, err := p.raw.DeleteOlderThan(ctx, now.Add(-p.retention))
	if err != nil {
		result.StepErrors = append(result.StepErrors, fmt.Sprintf("expire raw: %v", err))
		p.logger.Error("retention step failed", "error", err)
	} else {
		result.RawExpired = expired
	}

	if archiveDue {
		result.ArchiveRan = true
		if err := p.runArchive(ctx, now, &result); err != nil {
			result.StepErrors = append(result.StepErrors, fmt.Sprintf("archive: %v", err))
			p.logger.Error("archive step failed", "error", err)
		}
	}

	return result, nil
}

// runArchive appends a snapshot of every currently-published article. Running
// it twice within the archive hour produces a second, duplicate snapshot; the
// archive is append-only and not deduplicated.
func (p *Publisher) runArchive(ctx context.Context, now time.Time, result *ReleaseResult) error {
	articles, err := p.live.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published: %w", err)
	}
	if len(articles) == 0 {
		return nil
	}

	snapshots := make([]domain.ArchiveArticle, 0, len(articles))
	for _, article := range articles {
		snapshots = append(snapshots, domain.Snapshot(article, now))
	}
	if err := p.archive.Append(ctx, snapshots); err != nil {
		return fmt.Errorf("append snapshots: %w", err)
	}

	result.Archived = len(snapshots)
	return nil
}
