package newsletter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/usecase/newsstore"
)

// ErrNoNews возвращается, когда за запрошенную дату нет новостей.
var ErrNoNews = errors.New("нет новостей за дату")

// corpusStore — часть хранилища, нужная рассылке.
type corpusStore interface {
	ReadDay(ctx context.Context, date string) []domain.NewsItem
}

// aggregator запускает свежий проход пайплайна, когда кэш пуст.
type aggregator interface {
	Run(ctx context.Context) []domain.NewsItem
}

// Service строит и рассылает выпуски. Сбой внешней генерации не роняет
// выпуск, если корпус новостей пригоден: подставляется детерминированный
// запасной контент той же схемы.
type Service struct {
	store     corpusStore
	pipeline  aggregator
	generator domain.ContentGenerator
	fallback  domain.ContentGenerator
	mailer    domain.EmailSender
	subs      domain.SubscriberRepo
	log       zerolog.Logger
}

// NewService создаёт сервис рассылок.
func NewService(store corpusStore, pipe aggregator, gen, fallback domain.ContentGenerator, mailer domain.EmailSender, subs domain.SubscriberRepo, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		pipeline:  pipe,
		generator: gen,
		fallback:  fallback,
		mailer:    mailer,
		subs:      subs,
		log:       logger,
	}
}

// SendDaily строит и рассылает ежедневный выпуск из корпуса за сегодня.
// Пустой кэш компенсируется свежим проходом пайплайна.
func (s *Service) SendDaily(ctx context.Context) domain.JobResult {
	date := newsstore.DateOf(time.Now())
	items := s.store.ReadDay(ctx, date)
	if len(items) == 0 {
		s.log.Info().Str("date", date).Msg("рассылка: кэш пуст, свежий проход пайплайна")
		items = s.pipeline.Run(ctx)
	}
	return s.sendIssue(ctx, domain.KindDaily, items)
}

// SendWeekly строит и рассылает недельный выпуск. Окно дат считается
// назад от сегодня: 7 календарных дней для анонса, с понедельника
// текущей недели по сегодня — для итогов. Свежий проход пайплайна
// запускается только если всё окно в кэше пусто.
func (s *Service) SendWeekly(ctx context.Context, kind domain.NewsletterKind) domain.JobResult {
	now := time.Now().UTC()
	var window []string
	switch kind {
	case domain.KindWeeklyPreview:
		window = previewWindow(now)
	case domain.KindWeeklyReview:
		window = reviewWindow(now)
	default:
		return domain.JobResult{Err: fmt.Errorf("неизвестный недельный выпуск: %s", kind)}
	}

	items := s.collectWindow(ctx, window)
	if len(items) == 0 {
		s.log.Info().Str("kind", string(kind)).Msg("рассылка: окно в кэше пусто, свежий проход пайплайна")
		items = s.pipeline.Run(ctx)
	}
	return s.sendIssue(ctx, kind, items)
}

// BuildDigest строит краткую сводку за дату по кэшированному корпусу,
// с запасным вариантом при сбое генерации.
func (s *Service) BuildDigest(ctx context.Context, date string) (domain.DailyDigest, error) {
	items := s.store.ReadDay(ctx, date)
	if len(items) == 0 {
		return domain.DailyDigest{}, ErrNoNews
	}
	digest, err := s.generator.GenerateDailyDigest(ctx, items, date)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("сводка: генерация не удалась, запасной вариант")
		return s.fallback.GenerateDailyDigest(ctx, items, date)
	}
	return digest, nil
}

// collectWindow гидрирует дневные индексы окна и сливает их по URL,
// свежие версии вытесняют старые.
func (s *Service) collectWindow(ctx context.Context, dates []string) []domain.NewsItem {
	seen := make(map[string]struct{})
	var items []domain.NewsItem
	for _, date := range dates {
		for _, item := range s.store.ReadDay(ctx, date) {
			if _, ok := seen[item.URL]; ok {
				continue
			}
			seen[item.URL] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

func (s *Service) sendIssue(ctx context.Context, kind domain.NewsletterKind, items []domain.NewsItem) domain.JobResult {
	// Пустой корпус — успешный no-op, а не ошибка.
	if len(items) == 0 {
		s.log.Info().Str("kind", string(kind)).Msg("рассылка: корпус пуст, выпуск пропущен")
		return domain.JobResult{}
	}

	content, err := s.generator.GenerateNewsletter(ctx, items, kind)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("рассылка: генерация не удалась, запасной выпуск")
		content, err = s.fallback.GenerateNewsletter(ctx, items, kind)
		if err != nil {
			return domain.JobResult{Err: fmt.Errorf("запасной выпуск: %w", err), ItemsProcessed: len(items)}
		}
	}

	recipients, err := s.subs.GetConfirmedSubscribers(ctx)
	if err != nil {
		return domain.JobResult{Err: fmt.Errorf("список подписчиков: %w", err), ItemsProcessed: len(items)}
	}
	if len(recipients) == 0 {
		s.log.Info().Str("kind", string(kind)).Msg("рассылка: нет подтверждённых подписчиков")
		return domain.JobResult{ItemsProcessed: len(items)}
	}

	report, err := s.mailer.Send(ctx, content, recipients)
	if err != nil {
		return domain.JobResult{Err: fmt.Errorf("отправка выпуска: %w", err), ItemsProcessed: len(items), EmailsFailed: len(recipients)}
	}
	return domain.JobResult{
		ItemsProcessed: len(items),
		EmailsSent:     report.Sent,
		EmailsFailed:   report.Failed,
	}
}

// previewWindow — последние 7 календарных дат, включая сегодня.
func previewWindow(now time.Time) []string {
	dates := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		dates = append(dates, newsstore.DateOf(now.AddDate(0, 0, -i)))
	}
	return dates
}

// reviewWindow — с понедельника текущей недели по сегодня.
func reviewWindow(now time.Time) []string {
	offset := (int(now.Weekday()) + 6) % 7
	monday := now.AddDate(0, 0, -offset)
	dates := make([]string, 0, offset+1)
	for d := monday; !d.After(now); d = d.AddDate(0, 0, 1) {
		dates = append(dates, newsstore.DateOf(d))
	}
	return dates
}
