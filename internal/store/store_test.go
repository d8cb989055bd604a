package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/nitesh/news_rewriter/pkg/models"
)

func newMock(t *testing.T) (*PgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPgStore(sqlx.NewDb(db, "postgres")), mock
}

func TestRunMigrationsStoresZonedTimestamps(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS news.*published_at TIMESTAMPTZ DEFAULT NOW\(\).*ALTER COLUMN published_at TYPE TIMESTAMPTZ.*CREATE UNIQUE INDEX IF NOT EXISTS idx_news_source_url`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := RunMigrations(context.Background(), sqlx.NewDb(db, "postgres")); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestExistsBySourceURL(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM news WHERE source_url = $1)")).
		WithArgs("https://tass.ru/1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.ExistsBySourceURL(context.Background(), "https://tass.ru/1")
	if err != nil {
		t.Fatalf("ExistsBySourceURL: %v", err)
	}
	if !ok {
		t.Error("expected true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertCommits(t *testing.T) {
	s, mock := newMock(t)
	item := &models.NewsItem{
		Title:         "Новый",
		Description:   "Описание",
		Category:      "Спорт",
		SourceURL:     "https://rsport.ria.ru/1",
		OriginalTitle: "Старый",
		IsPublished:   true,
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO news")).
		WithArgs("Новый", "Описание", "Спорт", "https://rsport.ria.ru/1", "Старый", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	inserted, err := s.Insert(context.Background(), item)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestInsertConflictIsNotAnError(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (source_url) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := s.Insert(context.Background(), &models.NewsItem{SourceURL: "https://x"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false on conflict")
	}
}

func TestInsertRollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO news")).
		WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	if _, err := s.Insert(context.Background(), &models.NewsItem{SourceURL: "https://x"}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

var selectColumns = []string{"id", "title", "description", "category", "image_url", "video_url", "published_at", "source_url"}

func TestQueryPublishedByCategory(t *testing.T) {
	s, mock := newMock(t)
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = $1 AND is_published = true")).
		WithArgs("Культура", 5).
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow(int64(2), "T2", "D2", "Культура", "https://img/2.jpg", nil, ts, "https://ria.ru/2").
			AddRow(int64(1), "T1", "D1", "Культура", nil, nil, ts.Add(-time.Hour), "https://ria.ru/1"))

	rows, err := s.QueryPublished(context.Background(), "Культура", 5)
	if err != nil {
		t.Fatalf("QueryPublished: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].ImageURL.Valid || rows[0].ImageURL.String != "https://img/2.jpg" {
		t.Errorf("image_url = %+v", rows[0].ImageURL)
	}
	if rows[1].ImageURL.Valid || rows[1].VideoURL.Valid {
		t.Errorf("expected null media on second row")
	}
	if !rows[0].PublishedAt.Time.Equal(ts) {
		t.Errorf("published_at = %v", rows[0].PublishedAt.Time)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestQueryPublishedAll(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_published = true\nORDER BY published_at DESC\nLIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(selectColumns))

	rows, err := s.QueryPublished(context.Background(), "", 20)
	if err != nil {
		t.Fatalf("QueryPublished: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
