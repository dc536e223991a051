package jobs

import (
	"sync"
	"time"

	"econews-digest/internal/domain"
)

// StatusTracker — явное хранилище состояний задач, принадлежащее
// планировщику и внедряемое туда, где статус читают. Не глобальное:
// единственный писатель — обёртка планировщика.
type StatusTracker struct {
	mu       sync.RWMutex
	statuses map[domain.JobName]*domain.JobStatus
	order    []domain.JobName
}

// NewStatusTracker инициализирует состояние scheduled для всех задач.
func NewStatusTracker(names []domain.JobName) *StatusTracker {
	t := &StatusTracker{
		statuses: make(map[domain.JobName]*domain.JobStatus, len(names)),
		order:    append([]domain.JobName(nil), names...),
	}
	for _, name := range names {
		t.statuses[name] = &domain.JobStatus{Name: name, State: domain.JobStateScheduled}
	}
	return t
}

// MarkRunning фиксирует начало запуска.
func (t *StatusTracker) MarkRunning(name domain.JobName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.statuses[name]
	if !ok {
		return
	}
	status.State = domain.JobStateRunning
}

// MarkOutcome фиксирует итог запуска. Обновления монотонны: отметки
// более раннего запуска не затирают более поздние.
func (t *StatusTracker) MarkOutcome(name domain.JobName, res domain.JobResult, started time.Time, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.statuses[name]
	if !ok {
		return
	}
	if status.LastRun != nil && started.Before(*status.LastRun) {
		return
	}
	runAt := started
	status.LastRun = &runAt
	if res.Success() {
		status.State = domain.JobStateSuccess
		successAt := started
		status.LastSuccess = &successAt
	} else {
		status.State = domain.JobStateError
		errorAt := started
		status.LastError = &errorAt
		status.LastErrorMsg = res.Err.Error()
	}
	status.Metrics = domain.JobMetrics{
		DurationMS:     duration.Milliseconds(),
		ItemsProcessed: res.ItemsProcessed,
		EmailsSent:     res.EmailsSent,
		EmailsFailed:   res.EmailsFailed,
	}
}

// SetNextRun сохраняет время следующего срабатывания по расписанию.
func (t *StatusTracker) SetNextRun(name domain.JobName, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status, ok := t.statuses[name]; ok {
		next := at
		status.NextRun = &next
	}
}

// Get возвращает копию состояния задачи.
func (t *StatusTracker) Get(name domain.JobName) (domain.JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.statuses[name]
	if !ok {
		return domain.JobStatus{}, false
	}
	return *status, true
}

// All возвращает состояния всех задач в порядке регистрации.
func (t *StatusTracker) All() []domain.JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.JobStatus, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.statuses[name])
	}
	return out
}

// MetricsSummary — агрегат по всем задачам для эндпоинта метрик.
type MetricsSummary struct {
	Total      int                `json:"total"`
	Running    int                `json:"running"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Jobs       []domain.JobStatus `json:"jobs"`
}

// Summary собирает агрегат и поимённые состояния.
func (t *StatusTracker) Summary() MetricsSummary {
	jobs := t.All()
	summary := MetricsSummary{Total: len(jobs), Jobs: jobs}
	for _, job := range jobs {
		switch job.State {
		case domain.JobStateRunning:
			summary.Running++
		case domain.JobStateSuccess:
			summary.Successful++
		case domain.JobStateError:
			summary.Failed++
		}
	}
	return summary
}
