package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

// RawStore persists discovered articles in the raw_articles table.
type RawStore struct {
	db *sql.DB
}

var _ ports.RawStore = (*RawStore)(nil)

// NewRawStore wires a sql.DB implementation.
func NewRawStore(db *sql.DB) *RawStore {
	return &RawStore{db: db}
}

// Upsert inserts or refreshes one raw article. Mutable fields are
// last-write-wins; discovered_at and promoted are only set on first insert, so
// re-discovery neither resets the retention clock nor resurrects consumed rows.
func (r *RawStore) Upsert(ctx context.Context, article domain.RawArticle) error {
	query, args, err := psql.Insert("raw_articles").
		Columns("dedup_key", "title", "snippet", "source_name", "image_url", "discovered_at").
		Values(article.DedupKey, article.Title, article.Snippet, article.SourceName, article.ImageURL, article.DiscoveredAt).
		Suffix(`ON CONFLICT (dedup_key) DO UPDATE
			SET title = EXCLUDED.title,
			    snippet = EXCLUDED.snippet,
			    source_name = EXCLUDED.source_name,
			    image_url = EXCLUDED.image_url`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert raw article: %w", err)
	}
	return nil
}

// SelectUnpromoted returns up to limit unconsumed raw articles, newest first.
func (r *RawStore) SelectUnpromoted(ctx context.Context, limit int) ([]domain.RawArticle, error) {
	query, args, err := psql.Select("dedup_key", "title", "snippet", "source_name", "image_url", "discovered_at", "promoted").
		From("raw_articles").
		Where(sq.Eq{"promoted": false}).
		OrderBy("discovered_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unpromoted: %w", err)
	}
	defer rows.Close()

	var articles []domain.RawArticle
	for rows.Next() {
		var a domain.RawArticle
		if err := rows.Scan(&a.DedupKey, &a.Title, &a.Snippet, &a.SourceName, &a.ImageURL, &a.DiscoveredAt, &a.Promoted); err != nil {
			return nil, fmt.Errorf("scan raw article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// MarkPromoted flags a raw article as consumed by the enricher.
func (r *RawStore) MarkPromoted(ctx context.Context, dedupKey string) error {
	query, args, err := psql.Update("raw_articles").
		Set("promoted", true).
		Where(sq.Eq{"dedup_key": dedupKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark promoted: %w", err)
	}
	return nil
}

// DeleteOlderThan removes raw articles discovered strictly before cutoff.
func (r *RawStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := psql.Delete("raw_articles").
		Where(sq.Lt{"discovered_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired raw articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}
