package feeds

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
)

// Source описывает один источник новостей.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.NewsItem, error)
}

// Fetcher опрашивает все источники параллельно и сливает результаты.
// Падение одного источника изолировано: он даёт ноль новостей, остальные
// продолжают работать.
type Fetcher struct {
	sources []Source
	timeout time.Duration
	log     zerolog.Logger
}

var _ domain.FeedFetcher = (*Fetcher)(nil)

// NewFetcher создаёт сборщик с таймаутом на источник.
func NewFetcher(sources []Source, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{sources: sources, timeout: timeout, log: logger}
}

type fetchResult struct {
	source string
	items  []domain.NewsItem
	err    error
}

// FetchAll собирает новости со всех источников. Никогда не возвращает
// ошибку: частичный успех — штатный режим.
func (f *Fetcher) FetchAll(ctx context.Context) []domain.NewsItem {
	if len(f.sources) == 0 {
		return nil
	}

	results := make(chan fetchResult, len(f.sources))
	for _, src := range f.sources {
		go func(src Source) {
			srcCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			items, err := src.Fetch(srcCtx)
			results <- fetchResult{source: src.Name(), items: items, err: err}
		}(src)
	}

	var all []domain.NewsItem
	for range f.sources {
		res := <-results
		if errors.Is(res.err, ErrNoAPIKey) {
			f.log.Debug().Str("source", res.source).Msg("источник пропущен: нет ключа API")
			continue
		}
		if res.err != nil {
			metrics.FeedFetchErrors.WithLabelValues(res.source).Inc()
			f.log.Warn().Err(res.err).Str("source", res.source).Msg("источник не дал новостей")
			continue
		}
		metrics.FeedFetchItems.WithLabelValues(res.source).Add(float64(len(res.items)))
		f.log.Debug().Str("source", res.source).Int("items", len(res.items)).Msg("источник опрошен")
		all = append(all, res.items...)
	}
	return all
}

// normalize приводит новость к инвариантам модели: если источник не дал
// дату публикации, подставляется текущее время.
func normalize(item domain.NewsItem, now time.Time) domain.NewsItem {
	if item.PubDate.IsZero() {
		item.PubDate = now
	}
	return item
}
