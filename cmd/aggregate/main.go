package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"econews-digest/internal/adapters/feeds"
	"econews-digest/internal/infra/cache"
	"econews-digest/internal/infra/config"
	logpkg "econews-digest/internal/infra/log"
	"econews-digest/internal/usecase/newsstore"
	"econews-digest/internal/usecase/pipeline"
)

// Одноразовый запуск пайплайна агрегации: собрать, обработать, записать
// в кэш и напечатать сводку. Полезен для ручной проверки и крон-окружений
// без долгоживущего процесса.
func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := cache.NewClient(cfg.RedisAddr)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("aggregate: Redis недоступен, кэш деградирует")
	}
	store := newsstore.NewStore(cache.NewRedis(redisClient), logpkg.Component(logger, "newsstore"))

	var sources []feeds.Source
	for _, url := range cfg.Feeds.RSSURLs {
		sources = append(sources, feeds.NewRSSSource(url, nil))
	}
	sources = append(sources, feeds.NewNewsAPISource(cfg.NewsAPI.Key, cfg.NewsAPI.BaseURL, cfg.NewsAPI.Query, cfg.NewsAPI.Limit, nil))
	fetcher := feeds.NewFetcher(sources, cfg.Feeds.SourceTimeout, logpkg.Component(logger, "feeds"))

	pipe := pipeline.NewService(fetcher, store, logpkg.Component(logger, "pipeline"))
	items := pipe.Run(ctx)

	out := map[string]any{
		"summary": pipeline.Summarize(items),
		"items":   items,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error().Err(err).Msg("aggregate: вывод результата не удался")
		os.Exit(1)
	}
}
