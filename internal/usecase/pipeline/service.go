package pipeline

import (
	"context"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
	"econews-digest/internal/usecase/newsstore"
)

// Service — оркестратор агрегации: fetch → filter → dedupe → categorize
// → store. Ручной HTTP-запуск и задача планировщика идут через один и
// тот же код, поэтому их поведение не расходится.
type Service struct {
	fetcher domain.FeedFetcher
	store   *newsstore.Store
	log     zerolog.Logger
}

// NewService создаёт оркестратор.
func NewService(fetcher domain.FeedFetcher, store *newsstore.Store, logger zerolog.Logger) *Service {
	return &Service{fetcher: fetcher, store: store, log: logger}
}

// Run выполняет один проход пайплайна и возвращает категоризированные
// новости. Нулевой улов обрывает проход до записи: пустой день не
// затирает уже сохранённый. Недоступный кэш не мешает проходу —
// результат остаётся в памяти вызывающего.
func (s *Service) Run(ctx context.Context) []domain.NewsItem {
	date := newsstore.DateOf(time.Now())

	items := s.fetcher.FetchAll(ctx)
	s.logStage("fetched", len(items))
	if len(items) == 0 {
		s.log.Info().Msg("пайплайн: источники не дали новостей, запись пропущена")
		return nil
	}

	filtered := Filter(items)
	s.logStage("filtered", len(filtered))
	if len(filtered) == 0 {
		return nil
	}
	s.store.SaveStage(ctx, newsstore.StageFiltered, date, filtered)

	deduped := Dedupe(filtered)
	s.logStage("deduplicated", len(deduped))
	s.store.SaveStage(ctx, newsstore.StageDeduplicated, date, deduped)

	categorized := Categorize(deduped)
	s.logStage("categorized", len(categorized))
	s.store.SaveStage(ctx, newsstore.StageCategorized, date, categorized)

	stored := s.store.StoreDay(ctx, date, categorized)
	s.log.Info().Int("stored", stored).Str("date", date).Msg("пайплайн: проход завершён")
	return categorized
}

func (s *Service) logStage(stage string, count int) {
	metrics.PipelineStageItems.WithLabelValues(stage).Set(float64(count))
	s.log.Info().Str("stage", stage).Int("items", count).Msg("пайплайн: этап")
}

// Summary — сводка по результату прохода для ответов API.
type Summary struct {
	TotalItems int `json:"total_items"`
	Categories int `json:"categories"`
	Sources    int `json:"sources"`
}

// Summarize считает сводку: всего новостей, различных категорий и
// различных хостов-источников.
func Summarize(items []domain.NewsItem) Summary {
	categories := make(map[string]struct{})
	sources := make(map[string]struct{})
	for _, item := range items {
		if item.Category != "" {
			categories[item.Category] = struct{}{}
		}
		if u, err := url.Parse(item.URL); err == nil && u.Host != "" {
			sources[u.Host] = struct{}{}
		}
	}
	return Summary{TotalItems: len(items), Categories: len(categories), Sources: len(sources)}
}
