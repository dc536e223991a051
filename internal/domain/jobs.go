package domain

import "time"

// JobName идентифицирует именованную задачу планировщика.
type JobName string

const (
	// JobDailyNewsletter — ежедневная рассылка.
	JobDailyNewsletter JobName = "dailyNewsletter"
	// JobWeeklyPreview — анонс недели.
	JobWeeklyPreview JobName = "weeklyPreview"
	// JobWeeklyReview — итоги недели.
	JobWeeklyReview JobName = "weeklyReview"
	// JobNewsAggregation — сбор и обработка новостей.
	JobNewsAggregation JobName = "newsAggregation"
	// JobCacheCleanup — очистка устаревших записей кэша.
	JobCacheCleanup JobName = "cacheCleanup"
)

// AllJobNames перечисляет все известные задачи в порядке регистрации.
var AllJobNames = []JobName{
	JobDailyNewsletter,
	JobWeeklyPreview,
	JobWeeklyReview,
	JobNewsAggregation,
	JobCacheCleanup,
}

// JobState описывает текущее состояние задачи. success и error — это
// «последний наблюдаемый исход», а не блокирующие состояния: задачу
// можно запустить снова сразу после error.
type JobState string

const (
	// JobStateScheduled — задача ждёт следующего тика.
	JobStateScheduled JobState = "scheduled"
	// JobStateRunning — задача выполняется.
	JobStateRunning JobState = "running"
	// JobStateSuccess — последний запуск завершился успешно.
	JobStateSuccess JobState = "success"
	// JobStateError — последний запуск завершился ошибкой.
	JobStateError JobState = "error"
)

// JobMetrics накапливает показатели последнего запуска задачи.
type JobMetrics struct {
	DurationMS     int64 `json:"duration_ms"`
	ItemsProcessed int   `json:"items_processed"`
	EmailsSent     int   `json:"emails_sent"`
	EmailsFailed   int   `json:"emails_failed"`
}

// JobStatus — одна запись состояния на имя задачи. Обновления монотонны:
// отметки более позднего запуска никогда не откатываются.
type JobStatus struct {
	Name         JobName    `json:"name"`
	State        JobState   `json:"state"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    *time.Time `json:"last_error,omitempty"`
	LastErrorMsg string     `json:"last_error_msg,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
	Metrics      JobMetrics `json:"metrics"`
}

// JobResult — итог одного запуска тела задачи. Тело задачи возвращает
// результат, а не паникует; неожиданные паники ловит обёртка планировщика.
type JobResult struct {
	Err            error
	ItemsProcessed int
	EmailsSent     int
	EmailsFailed   int
}

// Success сообщает, завершился ли запуск без ошибки.
func (r JobResult) Success() bool {
	return r.Err == nil
}
