package ports

import (
	"context"
	"errors"
	"time"

	"kvibe/internal/domain"
)

// ErrNotFound reports that the addressed row does not exist. Stores wrap it so
// callers can tell a missing article from an infrastructure failure.
var ErrNotFound = errors.New("not found")

// RawStore persists discovered articles keyed by their canonical link.
type RawStore interface {
	// Upsert converges to one row per dedup key. Mutable fields are
	// last-write-wins; DiscoveredAt is kept from the first insert.
	Upsert(ctx context.Context, article domain.RawArticle) error
	// SelectUnpromoted returns up to limit raw articles that have not been
	// turned into live articles yet, newest first.
	SelectUnpromoted(ctx context.Context, limit int) ([]domain.RawArticle, error)
	MarkPromoted(ctx context.Context, dedupKey string) error
	// DeleteOlderThan removes raw articles discovered strictly before cutoff
	// and reports how many rows went away.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// LiveStore persists enriched articles and their visibility lifecycle.
type LiveStore interface {
	Insert(ctx context.Context, article domain.LiveArticle) (int64, error)
	// PublishPending flips every hidden article to published in one
	// conditional bulk update and returns the number of rows affected.
	PublishPending(ctx context.Context, at time.Time) (int64, error)
	ListPublished(ctx context.Context) ([]domain.LiveArticle, error)
	IncrementLikes(ctx context.Context, id int64) error
}

// ArchiveStore appends permanent snapshots of published articles.
type ArchiveStore interface {
	Append(ctx context.Context, snapshots []domain.ArchiveArticle) error
}

// Annotator asks a language model for a structured annotation of one raw
// article. Implementations must return typed defaults for anything the model
// left out or mangled, never a decode error for malformed content.
type Annotator interface {
	Annotate(ctx context.Context, article domain.RawArticle) (domain.Annotation, error)
}

// PreviewResolver finds a usable preview image for an article page.
type PreviewResolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}
