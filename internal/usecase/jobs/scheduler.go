package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
)

// ErrUnknownJob возвращается при запросе незарегистрированной задачи.
var ErrUnknownJob = errors.New("неизвестная задача")

// ErrJobRunning возвращается, когда задача уже выполняется: тик или
// ручной запуск при работающей задаче пропускается, а не накладывается.
var ErrJobRunning = errors.New("задача уже выполняется")

// Job связывает имя задачи, её расписание и тело.
type Job struct {
	Name     domain.JobName
	Schedule Schedule
	Body     func(ctx context.Context) domain.JobResult
}

// Scheduler запускает именованные задачи по независимым расписаниям в
// одном процессе. Обёртка вокруг каждого тела ловит любые паники: упавшая
// задача не должна помешать планировщику запустить её на следующем тике —
// пропущенный выпуск восстановим ручным запуском, упавший процесс нет.
type Scheduler struct {
	tracker *StatusTracker
	log     zerolog.Logger

	mu      sync.Mutex
	jobs    map[domain.JobName]*Job
	order   []domain.JobName
	running map[domain.JobName]bool
	nextRun map[domain.JobName]time.Time

	wg sync.WaitGroup
}

// NewScheduler создаёт планировщик с внедрённым хранилищем статусов.
func NewScheduler(tracker *StatusTracker, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		tracker: tracker,
		log:     logger,
		jobs:    make(map[domain.JobName]*Job),
		running: make(map[domain.JobName]bool),
		nextRun: make(map[domain.JobName]time.Time),
	}
}

// Register добавляет задачу и вычисляет её первое срабатывание.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := job
	s.jobs[job.Name] = &j
	s.order = append(s.order, job.Name)
	next := job.Schedule.Next(time.Now().UTC())
	s.nextRun[job.Name] = next
	s.tracker.SetNextRun(job.Name, next)
}

// Start запускает цикл планировщика; тик — раз в минуту.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		s.log.Info().Int("jobs", len(s.order)).Msg("планировщик запущен")
		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("планировщик остановлен")
				return
			case now := <-ticker.C:
				s.tick(ctx, now.UTC())
			}
		}
	}()
}

// Wait блокируется до завершения цикла и всех выполняющихся задач.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []*Job
	for _, name := range s.order {
		if now.Before(s.nextRun[name]) {
			continue
		}
		job := s.jobs[name]
		next := job.Schedule.Next(now)
		s.nextRun[name] = next
		s.tracker.SetNextRun(name, next)
		due = append(due, job)
	}
	s.mu.Unlock()

	for _, job := range due {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.runLocked(ctx, job); errors.Is(err, ErrJobRunning) {
				s.log.Warn().Str("job", string(job.Name)).Msg("тик пропущен: задача ещё выполняется")
			}
		}()
	}
}

// TriggerJob запускает задачу вручную и дожидается её завершения.
// Возвращает итоговый статус задачи.
func (s *Scheduler) TriggerJob(ctx context.Context, name domain.JobName) (domain.JobStatus, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return domain.JobStatus{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if err := s.runLocked(ctx, job); err != nil {
		return domain.JobStatus{}, err
	}
	status, _ := s.tracker.Get(name)
	return status, nil
}

// TriggerAll запускает агрегацию, затем рассылочные задачи параллельно.
func (s *Scheduler) TriggerAll(ctx context.Context) []domain.JobStatus {
	if _, err := s.TriggerJob(ctx, domain.JobNewsAggregation); err != nil {
		s.log.Warn().Err(err).Msg("запуск всех задач: агрегация не стартовала")
	}

	digests := []domain.JobName{domain.JobDailyNewsletter, domain.JobWeeklyPreview, domain.JobWeeklyReview}
	var wg sync.WaitGroup
	for _, name := range digests {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.TriggerJob(ctx, name); err != nil {
				s.log.Warn().Err(err).Str("job", string(name)).Msg("запуск всех задач: задача не стартовала")
			}
		}()
	}
	wg.Wait()
	return s.tracker.All()
}

// runLocked выполняет задачу под её замком. Повторный вход при
// выполняющейся задаче возвращает ErrJobRunning.
func (s *Scheduler) runLocked(ctx context.Context, job *Job) error {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		return ErrJobRunning
	}
	s.running[job.Name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, job.Name)
		s.mu.Unlock()
	}()

	s.execute(ctx, job)
	return nil
}

// execute — обёртка вокруг тела задачи: время, статус, изоляция паник.
func (s *Scheduler) execute(ctx context.Context, job *Job) {
	started := time.Now().UTC()
	runID := uuid.NewString()
	logger := s.log.With().Str("job", string(job.Name)).Str("run_id", runID).Logger()
	logger.Info().Msg("задача стартовала")
	s.tracker.MarkRunning(job.Name)

	var res domain.JobResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				res = domain.JobResult{Err: fmt.Errorf("паника в задаче: %v", r)}
			}
		}()
		res = job.Body(ctx)
	}()

	duration := time.Since(started)
	s.tracker.MarkOutcome(job.Name, res, started, duration)
	metrics.ObserveJobRun(string(job.Name), duration, res.Err)
	if res.ItemsProcessed > 0 {
		metrics.JobItemsProcessed.WithLabelValues(string(job.Name)).Add(float64(res.ItemsProcessed))
	}

	if res.Success() {
		logger.Info().Dur("duration", duration).Int("items", res.ItemsProcessed).
			Int("emails_sent", res.EmailsSent).Int("emails_failed", res.EmailsFailed).
			Msg("задача завершена")
		return
	}
	logger.Error().Err(res.Err).Dur("duration", duration).Msg("задача завершилась ошибкой")
}
