package jobs

import (
	"errors"
	"testing"
	"time"

	"econews-digest/internal/domain"
)

func TestNewStatusTrackerStartsScheduled(t *testing.T) {
	tracker := NewStatusTracker(domain.AllJobNames)
	all := tracker.All()
	if len(all) != len(domain.AllJobNames) {
		t.Fatalf("ожидали %d задач, получили %d", len(domain.AllJobNames), len(all))
	}
	for i, status := range all {
		if status.Name != domain.AllJobNames[i] {
			t.Fatalf("порядок регистрации нарушен на позиции %d", i)
		}
		if status.State != domain.JobStateScheduled {
			t.Fatalf("задача %s стартовала в состоянии %s", status.Name, status.State)
		}
	}
}

func TestMarkOutcomeSuccessAndError(t *testing.T) {
	tracker := NewStatusTracker(domain.AllJobNames)
	started := time.Now().UTC()

	tracker.MarkOutcome(domain.JobDailyNewsletter, domain.JobResult{ItemsProcessed: 5, EmailsSent: 3}, started, 2*time.Second)
	status, _ := tracker.Get(domain.JobDailyNewsletter)
	if status.State != domain.JobStateSuccess || status.LastSuccess == nil || status.LastError != nil {
		t.Fatalf("успешный запуск зафиксирован неверно: %+v", status)
	}
	if status.Metrics.DurationMS != 2000 || status.Metrics.EmailsSent != 3 {
		t.Fatalf("метрики запуска зафиксированы неверно: %+v", status.Metrics)
	}

	tracker.MarkOutcome(domain.JobNewsAggregation, domain.JobResult{Err: errors.New("источник недоступен")}, started, time.Second)
	status, _ = tracker.Get(domain.JobNewsAggregation)
	if status.State != domain.JobStateError || status.LastError == nil || status.LastErrorMsg == "" {
		t.Fatalf("неуспешный запуск зафиксирован неверно: %+v", status)
	}
}

func TestMarkOutcomeIsMonotonic(t *testing.T) {
	tracker := NewStatusTracker(domain.AllJobNames)
	later := time.Now().UTC()
	earlier := later.Add(-time.Hour)

	tracker.MarkOutcome(domain.JobDailyNewsletter, domain.JobResult{}, later, time.Second)
	tracker.MarkOutcome(domain.JobDailyNewsletter, domain.JobResult{Err: errors.New("старый запуск")}, earlier, time.Second)

	status, _ := tracker.Get(domain.JobDailyNewsletter)
	if status.State != domain.JobStateSuccess {
		t.Fatalf("отметка раннего запуска затёрла поздний: %+v", status)
	}
	if !status.LastRun.Equal(later) {
		t.Fatalf("время последнего запуска %v, ожидали %v", status.LastRun, later)
	}
}

func TestSummaryCounts(t *testing.T) {
	tracker := NewStatusTracker(domain.AllJobNames)
	now := time.Now().UTC()
	tracker.MarkOutcome(domain.JobDailyNewsletter, domain.JobResult{}, now, time.Second)
	tracker.MarkOutcome(domain.JobWeeklyPreview, domain.JobResult{Err: errors.New("сбой")}, now, time.Second)
	tracker.MarkRunning(domain.JobNewsAggregation)

	summary := tracker.Summary()
	if summary.Total != len(domain.AllJobNames) || summary.Successful != 1 || summary.Failed != 1 || summary.Running != 1 {
		t.Fatalf("неверный агрегат: %+v", summary)
	}
}
