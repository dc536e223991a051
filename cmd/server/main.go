package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"econews-digest/internal/adapters/feeds"
	"econews-digest/internal/adapters/generator"
	"econews-digest/internal/adapters/mailer"
	"econews-digest/internal/adapters/repo"
	"econews-digest/internal/domain"
	"econews-digest/internal/infra/cache"
	"econews-digest/internal/infra/config"
	"econews-digest/internal/infra/db"
	httpinfra "econews-digest/internal/infra/http"
	logpkg "econews-digest/internal/infra/log"
	"econews-digest/internal/infra/metrics"
	"econews-digest/internal/infra/openai"
	"econews-digest/internal/usecase/jobs"
	"econews-digest/internal/usecase/newsletter"
	"econews-digest/internal/usecase/newsstore"
	"econews-digest/internal/usecase/pipeline"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := cache.NewClient(cfg.RedisAddr)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// Кэш — ускоритель, а не система записи: без Redis сервис
		// продолжает работать в памяти.
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("server: Redis недоступен, кэш деградирует")
	}
	store := newsstore.NewStore(cache.NewRedis(redisClient), logpkg.Component(logger, "newsstore"))

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("server: нет подключения к БД")
	}
	defer pool.Close()
	subscribers := repo.NewPostgres(pool)

	var sources []feeds.Source
	for _, url := range cfg.Feeds.RSSURLs {
		sources = append(sources, feeds.NewRSSSource(url, nil))
	}
	sources = append(sources, feeds.NewNewsAPISource(cfg.NewsAPI.Key, cfg.NewsAPI.BaseURL, cfg.NewsAPI.Query, cfg.NewsAPI.Limit, nil))
	fetcher := feeds.NewFetcher(sources, cfg.Feeds.SourceTimeout, logpkg.Component(logger, "feeds"))

	pipe := pipeline.NewService(fetcher, store, logpkg.Component(logger, "pipeline"))

	fallback := generator.NewFallback(cfg.Limits.NewsletterMax)
	var gen domain.ContentGenerator = fallback
	if cfg.OpenAI.Key != "" {
		client := openai.NewClient(cfg.OpenAI.Key, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		gen = generator.NewOpenAI(client, cfg.OpenAI.Model, cfg.Limits.NewsletterMax)
	} else {
		logger.Warn().Msg("server: ключ OpenAI не задан, выпуски строит запасной генератор")
	}

	sender := mailer.NewClient(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.BatchSize, logpkg.Component(logger, "mailer"))
	letters := newsletter.NewService(store, pipe, gen, fallback, sender, subscribers, logpkg.Component(logger, "newsletter"))

	schedules, err := jobs.ParseSchedules(
		cfg.Schedules.DailyNewsletter,
		cfg.Schedules.WeeklyPreview,
		cfg.Schedules.WeeklyReview,
		cfg.Schedules.Aggregation,
		cfg.Schedules.CacheCleanup,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("server: некорректные расписания")
	}

	tracker := jobs.NewStatusTracker(domain.AllJobNames)
	scheduler := jobs.NewScheduler(tracker, logpkg.Component(logger, "scheduler"))
	for _, job := range jobs.BuildJobs(pipe, letters, store, schedules, cfg.Limits.Retention) {
		scheduler.Register(job)
	}
	scheduler.Start(ctx)

	srv := httpinfra.NewServer(logpkg.Component(logger, "http"))
	srv.Router.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs/run-all", func(w http.ResponseWriter, r *http.Request) {
			statuses := scheduler.TriggerAll(r.Context())
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": statuses})
		})

		r.Post("/jobs/{name}/run", func(w http.ResponseWriter, r *http.Request) {
			name := domain.JobName(chi.URLParam(r, "name"))
			status, err := scheduler.TriggerJob(r.Context(), name)
			switch {
			case errors.Is(err, jobs.ErrUnknownJob):
				httpinfra.WriteError(w, http.StatusNotFound, err.Error())
				return
			case errors.Is(err, jobs.ErrJobRunning):
				httpinfra.WriteError(w, http.StatusConflict, err.Error())
				return
			case err != nil:
				httpinfra.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
				"success": status.State != domain.JobStateError,
				"status":  status,
			})
		})

		r.Get("/jobs/status", func(w http.ResponseWriter, r *http.Request) {
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"jobs": tracker.All()})
		})

		r.Get("/jobs/status/{name}", func(w http.ResponseWriter, r *http.Request) {
			status, ok := tracker.Get(domain.JobName(chi.URLParam(r, "name")))
			if !ok {
				httpinfra.WriteError(w, http.StatusNotFound, "неизвестная задача")
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, status)
		})

		r.Get("/jobs/metrics", func(w http.ResponseWriter, r *http.Request) {
			httpinfra.WriteJSON(w, http.StatusOK, tracker.Summary())
		})

		r.Post("/news/aggregate", func(w http.ResponseWriter, r *http.Request) {
			items := pipe.Run(r.Context())
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"summary": pipeline.Summarize(items),
				"items":   items,
			})
		})

		r.Get("/news/{date}", func(w http.ResponseWriter, r *http.Request) {
			date, ok := parseDate(w, r)
			if !ok {
				return
			}
			items := store.ReadDay(r.Context(), date)
			httpinfra.WriteJSON(w, http.StatusOK, map[string]any{
				"date":  date,
				"count": len(items),
				"items": items,
			})
		})

		r.Get("/news/{date}/stats", func(w http.ResponseWriter, r *http.Request) {
			date, ok := parseDate(w, r)
			if !ok {
				return
			}
			stats, found := store.ReadStats(r.Context(), date)
			if !found {
				httpinfra.WriteError(w, http.StatusNotFound, "нет агрегатов за дату")
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, stats)
		})

		r.Get("/news/{date}/digest", func(w http.ResponseWriter, r *http.Request) {
			date, ok := parseDate(w, r)
			if !ok {
				return
			}
			digest, err := letters.BuildDigest(r.Context(), date)
			switch {
			case errors.Is(err, newsletter.ErrNoNews):
				httpinfra.WriteError(w, http.StatusNotFound, err.Error())
				return
			case err != nil:
				httpinfra.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
			httpinfra.WriteJSON(w, http.StatusOK, digest)
		})
	})

	metrics.StartServer(ctx, logpkg.Component(logger, "metrics"), cfg.MetricsAddr)
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server: HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	scheduler.Wait()
}

func parseDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "дата должна быть в формате YYYY-MM-DD")
		return "", false
	}
	return date, true
}
