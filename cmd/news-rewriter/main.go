package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nitesh/news_rewriter/internal/api"
	"github.com/nitesh/news_rewriter/internal/cache"
	"github.com/nitesh/news_rewriter/internal/config"
	"github.com/nitesh/news_rewriter/internal/feed"
	"github.com/nitesh/news_rewriter/internal/llm"
	"github.com/nitesh/news_rewriter/internal/logger"
	"github.com/nitesh/news_rewriter/internal/service"
	"github.com/nitesh/news_rewriter/internal/store"
)

func main() {
	ingestOnce := flag.Bool("ingest-once", false, "run a single ingest pass, print the summary and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("configuration error")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Get()

	db, err := sqlx.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer db.Close()
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	// the database may still be starting (docker compose)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("waiting for db")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to db")
	}

	ctx := log.WithContext(context.Background())
	if err := store.RunMigrations(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	var readCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, serving reads without cache")
		} else {
			readCache = rc
		}
	}
	defer readCache.Close()

	rewriter, err := llm.New(rewriterOptions(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("rewrite backend")
	}

	svc := service.NewService(
		store.NewPgStore(db),
		feed.NewReader(cfg.FeedTimeout, nil),
		rewriter,
		readCache,
		cfg.Feeds,
		cfg.IngestLimit,
	)

	if *ingestOnce {
		report, err := svc.Ingest(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("ingest")
		}
		if err := writeSummary(os.Stdout, report); err != nil {
			log.Fatal().Err(err).Msg("write summary")
		}
		return
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.RegisterRoutes(router, api.NewHandler(svc))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.RewriteBackend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func rewriterOptions(cfg *config.Config) llm.Options {
	opts := llm.Options{
		Backend:     llm.Backend(cfg.RewriteBackend),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.LLMTimeout,
	}
	switch opts.Backend {
	case llm.BackendYandex:
		opts.APIKey = cfg.YandexAPIKey
		opts.FolderID = cfg.YandexFolderID
		opts.Model = cfg.YandexModel
		opts.BaseURL = cfg.YandexURL
	default:
		opts.APIKey = cfg.OpenAIAPIKey
		opts.Model = cfg.OpenAIModel
		opts.BaseURL = cfg.OpenAIBaseURL
	}
	return opts
}

// writeSummary prints an ingest report in the same shape POST / answers with.
func writeSummary(w io.Writer, report *service.IngestReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(struct {
		Message string         `json:"message"`
		Results map[string]int `json:"results"`
	}{report.Message(), report.Results})
}
