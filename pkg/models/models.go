package models

import (
	dbtypes "github.com/nitesh/news_rewriter/internal/db"
)

// NewsItem represents a stored, rewritten news row.
type NewsItem struct {
	ID          int64              `db:"id" json:"id"`
	Title       string             `db:"title" json:"title"`
	Description string             `db:"description" json:"description"`
	Category    string             `db:"category" json:"category"`
	ImageURL    dbtypes.NullString `db:"image_url" json:"image_url"`
	VideoURL    dbtypes.NullString `db:"video_url" json:"video_url"`
	PublishedAt dbtypes.NullTime   `db:"published_at" json:"published_at"`
	SourceURL   string             `db:"source_url" json:"source_url"`

	// Stored for traceability, not returned to readers.
	OriginalTitle string `db:"original_title" json:"-"`
	IsPublished   bool   `db:"is_published" json:"-"`
}

// RawEntry is a single feed entry before rewriting.
type RawEntry struct {
	Title       string
	Description string
	Link        string
}
