package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервиса.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	PGDSN     string `envconfig:"PG_DSN"`

	Feeds struct {
		RSSURLs       []string      `envconfig:"RSS_URLS" default:"https://feeds.bbci.co.uk/news/business/rss.xml,https://www.cnbc.com/id/20910258/device/rss/rss.html"`
		SourceTimeout time.Duration `envconfig:"FEED_SOURCE_TIMEOUT" default:"10s"`
	} `envconfig:""`

	NewsAPI struct {
		Key     string `envconfig:"NEWS_API_KEY"`
		BaseURL string `envconfig:"NEWS_API_URL" default:"https://newsapi.org/v2"`
		Query   string `envconfig:"NEWS_API_QUERY" default:"economy OR inflation OR \"interest rates\""`
		Limit   int    `envconfig:"NEWS_API_LIMIT" default:"50"`
	} `envconfig:""`

	OpenAI struct {
		Key     string        `envconfig:"OPENAI_API_KEY"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-mini"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Mail struct {
		APIKey    string `envconfig:"MAIL_API_KEY"`
		BaseURL   string `envconfig:"MAIL_API_URL"`
		From      string `envconfig:"MAIL_FROM" default:"digest@econews.local"`
		BatchSize int    `envconfig:"MAIL_BATCH_SIZE" default:"50"`
	} `envconfig:""`

	Schedules struct {
		DailyNewsletter string `envconfig:"SCHEDULE_DAILY_NEWSLETTER" default:"daily 08:00"`
		WeeklyPreview   string `envconfig:"SCHEDULE_WEEKLY_PREVIEW" default:"weekly mon 07:00"`
		WeeklyReview    string `envconfig:"SCHEDULE_WEEKLY_REVIEW" default:"weekly fri 17:00"`
		Aggregation     string `envconfig:"SCHEDULE_AGGREGATION" default:"every 30m"`
		CacheCleanup    string `envconfig:"SCHEDULE_CACHE_CLEANUP" default:"daily 03:00"`
	} `envconfig:""`

	Limits struct {
		NewsletterMax int           `envconfig:"NEWSLETTER_MAX_ITEMS" default:"10"`
		Retention     time.Duration `envconfig:"NEWS_RETENTION" default:"168h"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
