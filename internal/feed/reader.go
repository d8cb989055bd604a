package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/nitesh/news_rewriter/pkg/models"
)

const userAgent = "news-rewriter/1.0 (+rss)"

// Reader fetches and parses RSS/Atom feeds.
type Reader struct {
	parser *gofeed.Parser
}

// NewReader creates a feed reader. If httpClient is nil, a client with the
// given timeout is used.
func NewReader(timeout time.Duration, httpClient *http.Client) *Reader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	p := gofeed.NewParser()
	p.Client = httpClient
	p.UserAgent = userAgent
	return &Reader{parser: p}
}

// Fetch downloads feedURL and returns its entries in feed order. Entries are
// not filtered here; callers drop the ones missing a title or description.
func (r *Reader) Fetch(ctx context.Context, feedURL string) ([]models.RawEntry, error) {
	f, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	entries := make([]models.RawEntry, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		desc := item.Description
		if strings.TrimSpace(desc) == "" {
			desc = item.Content
		}
		entries = append(entries, models.RawEntry{
			Title:       PlainText(item.Title),
			Description: PlainText(desc),
			Link:        strings.TrimSpace(item.Link),
		})
	}
	return entries, nil
}

// PlainText strips HTML markup, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}
