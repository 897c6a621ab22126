package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"kvibe/internal/domain"
	"kvibe/internal/ports"
)

// LiveStore persists enriched articles in the live_articles table.
type LiveStore struct {
	db *sql.DB
}

var _ ports.LiveStore = (*LiveStore)(nil)

// NewLiveStore wires a sql.DB implementation.
func NewLiveStore(db *sql.DB) *LiveStore {
	return &LiveStore{db: db}
}

// Insert writes a new live article and returns its store-assigned id.
func (l *LiveStore) Insert(ctx context.Context, article domain.LiveArticle) (int64, error) {
	query, args, err := psql.Insert("live_articles").
		Columns("artist", "title", "summary", "keywords",
			"vibe_excitement", "vibe_shock", "vibe_sadness",
			"image_url", "source_name", "is_published").
		Values(article.Artist, article.Title, article.Summary, pq.Array(article.Keywords),
			article.Vibe.Excitement, article.Vibe.Shock, article.Vibe.Sadness,
			article.ImageURL, article.SourceName, article.IsPublished).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert live article: %w", err)
	}
	return id, nil
}

// PublishPending flips every hidden article to published in one conditional
// bulk update. The is_published guard makes repeated runs converge: the second
// invocation simply affects zero rows.
func (l *LiveStore) PublishPending(ctx context.Context, at time.Time) (int64, error) {
	query, args, err := psql.Update("live_articles").
		Set("is_published", true).
		Set("published_at", at).
		Where(sq.Eq{"is_published": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build publish update: %w", err)
	}

	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("publish pending: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ListPublished returns every published article, newest publication first.
func (l *LiveStore) ListPublished(ctx context.Context) ([]domain.LiveArticle, error) {
	query, args, err := psql.Select("id", "artist", "title", "summary", "keywords",
		"vibe_excitement", "vibe_shock", "vibe_sadness",
		"image_url", "source_name", "likes", "is_published", "published_at", "created_at").
		From("live_articles").
		Where(sq.Eq{"is_published": true}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query published: %w", err)
	}
	defer rows.Close()

	var articles []domain.LiveArticle
	for rows.Next() {
		var (
			a           domain.LiveArticle
			keywords    pq.StringArray
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Artist, &a.Title, &a.Summary, &keywords,
			&a.Vibe.Excitement, &a.Vibe.Shock, &a.Vibe.Sadness,
			&a.ImageURL, &a.SourceName, &a.Likes, &a.IsPublished, &publishedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan live article: %w", err)
		}
		a.Keywords = []string(keywords)
		if publishedAt.Valid {
			t := publishedAt.Time
			a.PublishedAt = &t
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// IncrementLikes bumps the vote counter atomically in the store.
func (l *LiveStore) IncrementLikes(ctx context.Context, id int64) error {
	query, args, err := psql.Update("live_articles").
		Set("likes", sq.Expr("likes + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment likes: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("live article %d: %w", id, ports.ErrNotFound)
	}
	return nil
}
