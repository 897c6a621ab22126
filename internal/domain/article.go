package domain

import "time"

// RawArticle is a discovered, not-yet-enriched news item. DedupKey is the
// canonicalized source link and is the only identity a raw item has.
type RawArticle struct {
	DedupKey     string
	Title        string
	Snippet      string
	SourceName   string
	ImageURL     string
	DiscoveredAt time.Time
	Promoted     bool
}

// Vibe holds estimated reaction intensities for display. The generator aims for
// a sum of 100 but storage accepts whatever survived decoding.
type Vibe struct {
	Excitement int `json:"excitement"`
	Shock      int `json:"shock"`
	Sadness    int `json:"sadness"`
}

// Annotation is the model's structured read of one raw article.
type Annotation struct {
	Artist   string
	Summary  string
	Keywords []string
	Vibe     Vibe
}

// LiveArticle is the enriched item managed through the hidden -> published
// lifecycle and read by the front end.
type LiveArticle struct {
	ID          int64
	Artist      string
	Title       string
	Summary     string
	Keywords    []string
	Vibe        Vibe
	ImageURL    string
	SourceName  string
	Likes       int
	IsPublished bool
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// ArchiveArticle is a permanent snapshot of a published LiveArticle, minus the
// volatile counters.
type ArchiveArticle struct {
	Artist     string
	Title      string
	Summary    string
	Keywords   []string
	Vibe       Vibe
	ImageURL   string
	SourceName string
	ArchivedAt time.Time
}

// Snapshot copies the descriptive fields of a live article into an archive row.
func Snapshot(article LiveArticle, at time.Time) ArchiveArticle {
	return ArchiveArticle{
		Artist:     article.Artist,
		Title:      article.Title,
		Summary:    article.Summary,
		Keywords:   article.Keywords,
		Vibe:       article.Vibe,
		ImageURL:   article.ImageURL,
		SourceName: article.SourceName,
		ArchivedAt: at,
	}
}
