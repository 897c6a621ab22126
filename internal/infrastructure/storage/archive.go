package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

// ArchiveStore appends snapshots to the archive_articles table. Append-only:
// nothing in the pipeline updates or deletes archive rows, and snapshots are
// not deduplicated against earlier runs.
type ArchiveStore struct {
	db *sql.DB
}

var _ ports.ArchiveStore = (*ArchiveStore)(nil)

// NewArchiveStore wires a sql.DB implementation.
func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// Append writes all snapshots in a single multi-row insert.
func (a *ArchiveStore) Append(ctx context.Context, snapshots []domain.ArchiveArticle) error {
	if len(snapshots) == 0 {
		return nil
	}

	builder := psql.Insert("archive_articles").
		Columns("artist", "title", "summary", "keywords",
			"vibe_excitement", "vibe_shock", "vibe_sadness",
			"image_url", "source_name", "archived_at")
	for _, s := range snapshots {
		builder = builder.Values(s.Artist, s.Title, s.Summary, pq.Array(s.Keywords),
			s.Vibe.Excitement, s.Vibe.Shock, s.Vibe.Sadness,
			s.ImageURL, s.SourceName, s.ArchivedAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append archive snapshots: %w", err)
	}
	return nil
}
