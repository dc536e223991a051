package jobs

import (
	"context"
	"time"

	"econews-digest/internal/domain"
)

// Aggregator запускает проход пайплайна агрегации.
type Aggregator interface {
	Run(ctx context.Context) []domain.NewsItem
}

// Newsletters строит и рассылает выпуски.
type Newsletters interface {
	SendDaily(ctx context.Context) domain.JobResult
	SendWeekly(ctx context.Context, kind domain.NewsletterKind) domain.JobResult
}

// Cleaner удаляет устаревшие записи кэша.
type Cleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) int
}

// Schedules задаёт расписания всех именованных задач.
type Schedules struct {
	DailyNewsletter Schedule
	WeeklyPreview   Schedule
	WeeklyReview    Schedule
	Aggregation     Schedule
	CacheCleanup    Schedule
}

// ParseSchedules разбирает записи расписаний из конфига.
func ParseSchedules(daily, preview, review, aggregation, cleanup string) (Schedules, error) {
	var out Schedules
	var err error
	if out.DailyNewsletter, err = ParseSchedule(daily); err != nil {
		return Schedules{}, err
	}
	if out.WeeklyPreview, err = ParseSchedule(preview); err != nil {
		return Schedules{}, err
	}
	if out.WeeklyReview, err = ParseSchedule(review); err != nil {
		return Schedules{}, err
	}
	if out.Aggregation, err = ParseSchedule(aggregation); err != nil {
		return Schedules{}, err
	}
	if out.CacheCleanup, err = ParseSchedule(cleanup); err != nil {
		return Schedules{}, err
	}
	return out, nil
}

// BuildJobs собирает тела всех именованных задач в порядке регистрации.
func BuildJobs(pipe Aggregator, letters Newsletters, cleaner Cleaner, schedules Schedules, retention time.Duration) []Job {
	return []Job{
		{
			Name:     domain.JobDailyNewsletter,
			Schedule: schedules.DailyNewsletter,
			Body: func(ctx context.Context) domain.JobResult {
				return letters.SendDaily(ctx)
			},
		},
		{
			Name:     domain.JobWeeklyPreview,
			Schedule: schedules.WeeklyPreview,
			Body: func(ctx context.Context) domain.JobResult {
				return letters.SendWeekly(ctx, domain.KindWeeklyPreview)
			},
		},
		{
			Name:     domain.JobWeeklyReview,
			Schedule: schedules.WeeklyReview,
			Body: func(ctx context.Context) domain.JobResult {
				return letters.SendWeekly(ctx, domain.KindWeeklyReview)
			},
		},
		{
			Name:     domain.JobNewsAggregation,
			Schedule: schedules.Aggregation,
			Body: func(ctx context.Context) domain.JobResult {
				items := pipe.Run(ctx)
				return domain.JobResult{ItemsProcessed: len(items)}
			},
		},
		{
			Name:     domain.JobCacheCleanup,
			Schedule: schedules.CacheCleanup,
			Body: func(ctx context.Context) domain.JobResult {
				deleted := cleaner.Cleanup(ctx, retention)
				return domain.JobResult{ItemsProcessed: deleted}
			},
		},
	}
}
