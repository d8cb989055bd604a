package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nitesh/news_rewriter/pkg/models"
)

type PgStore struct {
	db *sqlx.DB
}

func NewPgStore(db *sqlx.DB) *PgStore {
	return &PgStore{db: db}
}

// RunMigrations creates the news table. The unique index on source_url is
// what keeps one row per source link when ingests race.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	initSQL := `
CREATE TABLE IF NOT EXISTS news(
  id SERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  category VARCHAR(100) NOT NULL,
  source_url TEXT NOT NULL,
  original_title TEXT,
  is_published BOOLEAN NOT NULL DEFAULT TRUE,
  image_url TEXT,
  video_url TEXT,
  published_at TIMESTAMPTZ DEFAULT NOW()
);

-- tables created before published_at carried a zone held session-local time
DO $$
BEGIN
  IF EXISTS (
    SELECT 1 FROM information_schema.columns
    WHERE table_name = 'news' AND column_name = 'published_at'
      AND data_type = 'timestamp without time zone'
  ) THEN
    ALTER TABLE news ALTER COLUMN published_at TYPE TIMESTAMPTZ;
  END IF;
END $$;

CREATE UNIQUE INDEX IF NOT EXISTS idx_news_source_url ON news(source_url);
CREATE INDEX IF NOT EXISTS idx_news_category_published ON news(category, published_at DESC);
CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at DESC);
`
	_, err := db.ExecContext(ctx, initSQL)
	return err
}

func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PgStore) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM news WHERE source_url = $1)`, sourceURL)
	if err != nil {
		return false, fmt.Errorf("check source_url: %w", err)
	}
	return exists, nil
}

// Insert stores a rewritten item in its own transaction. It reports false when
// a row with the same source_url already exists.
func (p *PgStore) Insert(ctx context.Context, item *models.NewsItem) (bool, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO news (title, description, category, source_url, original_title, is_published)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (source_url) DO NOTHING
`,
		item.Title,
		item.Description,
		item.Category,
		item.SourceURL,
		item.OriginalTitle,
		item.IsPublished,
	)
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("insert news source_url=%s: %w", item.SourceURL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, fmt.Errorf("insert news source_url=%s: %w", item.SourceURL, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return n > 0, nil
}

// QueryPublished returns published rows, newest first. An empty category
// means no category filter.
func (p *PgStore) QueryPublished(ctx context.Context, category string, limit int) ([]models.NewsItem, error) {
	rows := []models.NewsItem{}
	var err error
	if category != "" {
		query := `
SELECT id, title, description, category, image_url, video_url, published_at, source_url
FROM news
WHERE category = $1 AND is_published = true
ORDER BY published_at DESC
LIMIT $2
`
		err = p.db.SelectContext(ctx, &rows, query, category, limit)
	} else {
		query := `
SELECT id, title, description, category, image_url, video_url, published_at, source_url
FROM news
WHERE is_published = true
ORDER BY published_at DESC
LIMIT $1
`
		err = p.db.SelectContext(ctx, &rows, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	return rows, nil
}
