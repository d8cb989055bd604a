package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nitesh/news_rewriter/internal/cache"
	"github.com/nitesh/news_rewriter/internal/config"
	"github.com/nitesh/news_rewriter/internal/llm"
	"github.com/nitesh/news_rewriter/pkg/models"
)

type NewsStore interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Insert(ctx context.Context, item *models.NewsItem) (bool, error)
	QueryPublished(ctx context.Context, category string, limit int) ([]models.NewsItem, error)
	Ping(ctx context.Context) error
}

type FeedReader interface {
	Fetch(ctx context.Context, feedURL string) ([]models.RawEntry, error)
}

// Status is what happened to one feed entry during an ingest.
type Status string

const (
	StatusInserted         Status = "inserted"
	StatusSkippedEmpty     Status = "skipped_empty"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusFailed           Status = "failed"
)

// Outcome is the per-entry result of ProcessFeed.
type Outcome struct {
	SourceURL string
	Status    Status
	Err       error
}

// IngestReport summarizes one ingest pass.
type IngestReport struct {
	Total   int            `json:"total"`
	Results map[string]int `json:"results"`
}

// Message is the human-readable summary sent back to the caller.
func (r *IngestReport) Message() string {
	return fmt.Sprintf("%d added", r.Total)
}

type Service struct {
	repo        NewsStore
	reader      FeedReader
	rewriter    llm.Rewriter
	cache       cache.Cache
	feeds       []config.Feed
	ingestLimit int
}

func NewService(repo NewsStore, reader FeedReader, rewriter llm.Rewriter, c cache.Cache, feeds []config.Feed, ingestLimit int) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		repo:        repo,
		reader:      reader,
		rewriter:    rewriter,
		cache:       c,
		feeds:       feeds,
		ingestLimit: ingestLimit,
	}
}

// Ingest runs the fetch, dedup, rewrite and insert pipeline over every
// configured feed, in order. A feed that cannot be fetched counts as 0.
func (s *Service) Ingest(ctx context.Context) (*IngestReport, error) {
	log := zerolog.Ctx(ctx)
	start := time.Now()
	report := &IngestReport{Results: make(map[string]int, len(s.feeds))}

	for _, f := range s.feeds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := report.Results[f.Category]; !ok {
			report.Results[f.Category] = 0
		}
		outcomes, err := s.ProcessFeed(ctx, f, s.ingestLimit)
		if err != nil {
			log.Error().Err(err).Str("category", f.Category).Str("feed", f.URL).Msg("feed skipped")
			continue
		}
		saved := countInserted(outcomes)
		report.Results[f.Category] += saved
		report.Total += saved
	}

	if report.Total > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("cache invalidate failed")
		}
	}

	log.Info().
		Int("total", report.Total).
		Interface("results", report.Results).
		Dur("duration", time.Since(start)).
		Msg("ingest finished")
	return report, nil
}

// ProcessFeed handles the first limit entries of one feed. Every entry gets
// its own Outcome; a failing entry never stops the ones after it. The error
// is non-nil only when the feed itself could not be fetched.
func (s *Service) ProcessFeed(ctx context.Context, f config.Feed, limit int) ([]Outcome, error) {
	entries, err := s.reader.Fetch(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	outcomes := make([]Outcome, 0, len(entries))
	for _, e := range entries {
		outcomes = append(outcomes, s.processEntry(ctx, f.Category, e))
	}
	return outcomes, nil
}

func (s *Service) processEntry(ctx context.Context, category string, e models.RawEntry) Outcome {
	log := zerolog.Ctx(ctx).With().Str("category", category).Str("source_url", e.Link).Logger()
	out := Outcome{SourceURL: e.Link}

	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Description) == "" {
		out.Status = StatusSkippedEmpty
		return out
	}

	exists, err := s.repo.ExistsBySourceURL(ctx, e.Link)
	if err != nil {
		log.Error().Err(err).Msg("dedup check failed")
		out.Status, out.Err = StatusFailed, err
		return out
	}
	if exists {
		out.Status = StatusSkippedDuplicate
		return out
	}

	rw, err := s.rewriter.Rewrite(ctx, e.Title, e.Description)
	if err != nil {
		log.Error().Err(err).Msg("Error rewriting news")
		out.Status, out.Err = StatusFailed, err
		return out
	}

	inserted, err := s.repo.Insert(ctx, &models.NewsItem{
		Title:         rw.Title,
		Description:   rw.Description,
		Category:      category,
		SourceURL:     e.Link,
		OriginalTitle: e.Title,
		IsPublished:   true,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error saving news")
		out.Status, out.Err = StatusFailed, err
		return out
	}
	if !inserted {
		// another ingest stored it between the check and the insert
		out.Status = StatusSkippedDuplicate
		return out
	}
	log.Debug().Str("title", rw.Title).Msg("news saved")
	out.Status = StatusInserted
	return out
}

func countInserted(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusInserted {
			n++
		}
	}
	return n
}

// List returns published items, newest first. An empty category or the home
// label means every category.
func (s *Service) List(ctx context.Context, category string, limit int) ([]models.NewsItem, error) {
	if category == config.HomeCategory {
		category = ""
	}
	log := zerolog.Ctx(ctx)

	// The generation is read before the query so a result computed across an
	// ingest is stored under a key that is already dead.
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cache generation unavailable, reading store")
		return s.repo.QueryPublished(ctx, category, limit)
	}
	key := cache.ListKey(gen, category, limit)

	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	} else if ok {
		var items []models.NewsItem
		if err := json.Unmarshal(b, &items); err == nil {
			return items, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	items, err := s.repo.QueryPublished(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, b); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return items, nil
}

func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
