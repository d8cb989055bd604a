package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// HomeCategory is the category label readers send to mean "all categories".
const HomeCategory = "Главная"

// Feed binds a category label to the RSS feed it is pulled from.
type Feed struct {
	Category string `validate:"required"`
	URL      string `validate:"required,url"`
}

// DefaultFeeds returns the fixed category to feed mapping, in ingest order.
//
// The vedomosti rubric URL may serve an HTML page rather than a feed; it is
// kept as-is until checked against the live endpoint.
func DefaultFeeds() []Feed {
	return []Feed{
		{Category: "Политика", URL: "https://tass.ru/rss/v2.xml"},
		{Category: "Экономика", URL: "https://www.interfax.ru/rss.asp"},
		{Category: "Спорт", URL: "https://rsport.ria.ru/export/rss2/sport/index.xml"},
		{Category: "Технологии", URL: "https://www.vedomosti.ru/rss/rubric/technology"},
		{Category: "Культура", URL: "https://ria.ru/export/rss2/culture/index.xml"},
	}
}

// Config holds all configuration for the application
type Config struct {
	// Server
	Port            string        `validate:"required,numeric"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	// Database
	DatabaseURL    string `validate:"required"`
	DBDriver       string `validate:"oneof=postgres pgx"`
	DBMaxOpenConns int    `validate:"gte=0"`

	// Rewrite backend
	RewriteBackend string        `validate:"oneof=openai yandex"`
	OpenAIAPIKey   string        `validate:"required_if=RewriteBackend openai"`
	OpenAIModel    string        `validate:"required"`
	OpenAIBaseURL  string        `validate:"required,url"`
	YandexAPIKey   string        `validate:"required_if=RewriteBackend yandex"`
	YandexFolderID string        `validate:"required_if=RewriteBackend yandex"`
	YandexModel    string        `validate:"required"`
	YandexURL      string        `validate:"required,url"`
	Temperature    float64       `validate:"gte=0,lte=2"`
	MaxTokens      int           `validate:"gt=0"`
	LLMTimeout     time.Duration `validate:"gt=0"`

	// Ingest
	Feeds       []Feed        `validate:"required,min=1,dive"`
	IngestLimit int           `validate:"gt=0"`
	FeedTimeout time.Duration `validate:"gt=0"`

	// Cache
	RedisURL string
	CacheTTL time.Duration `validate:"gt=0"`

	// Logging
	LogLevel  string
	LogPretty bool
}

// Load reads configuration from the environment (and .env if present) and
// validates it. A missing credential or connection string is an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),

		RewriteBackend: getEnv("REWRITE_BACKEND", "openai"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		YandexAPIKey:   getEnv("YANDEX_API_KEY", ""),
		YandexFolderID: getEnv("YANDEX_FOLDER_ID", ""),
		YandexModel:    getEnv("YANDEX_MODEL", "yandexgpt-lite"),
		YandexURL:      getEnv("YANDEX_URL", "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"),
		Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 500),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		Feeds:       DefaultFeeds(),
		IngestLimit: getEnvAsInt("INGEST_LIMIT", 3),
		FeedTimeout: getEnvAsDuration("FEED_TIMEOUT", 30*time.Second),

		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: field %s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Int("default", defaultVal).Msg("Invalid int value, using default")
		return defaultVal
	}
	return value
}

func getEnvAsFloat(name string, defaultVal float64) float64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Float64("default", defaultVal).Msg("Invalid float value, using default")
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Bool("default", defaultVal).Msg("Invalid bool value, using default")
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Err(err).Str("key", name).Dur("default", defaultVal).Msg("Invalid duration value, using default")
		return defaultVal
	}
	return value
}
