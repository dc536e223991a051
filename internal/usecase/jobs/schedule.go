package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Schedule описывает cron-подобное расписание одной задачи.
// Поддерживаются три формы записи:
//
//	"every 30m"        — каждые N минут/часов
//	"daily 08:00"      — ежедневно в HH:MM (UTC)
//	"weekly mon 07:00" — еженедельно в день недели и HH:MM (UTC)
type Schedule struct {
	kind     scheduleKind
	interval time.Duration
	weekday  time.Weekday
	hour     int
	minute   int
}

type scheduleKind int

const (
	scheduleEvery scheduleKind = iota
	scheduleDaily
	scheduleWeekly
)

var weekdays = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// ParseSchedule разбирает запись расписания.
func ParseSchedule(spec string) (Schedule, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(spec)))
	if len(fields) < 2 {
		return Schedule{}, fmt.Errorf("некорректное расписание %q", spec)
	}
	switch fields[0] {
	case "every":
		interval, err := time.ParseDuration(fields[1])
		if err != nil {
			return Schedule{}, fmt.Errorf("некорректный интервал %q: %w", fields[1], err)
		}
		if interval < time.Minute {
			return Schedule{}, fmt.Errorf("интервал %q меньше минуты", fields[1])
		}
		return Schedule{kind: scheduleEvery, interval: interval}, nil
	case "daily":
		hour, minute, err := parseClock(fields[1])
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{kind: scheduleDaily, hour: hour, minute: minute}, nil
	case "weekly":
		if len(fields) < 3 {
			return Schedule{}, fmt.Errorf("некорректное расписание %q", spec)
		}
		weekday, ok := weekdays[fields[1]]
		if !ok {
			return Schedule{}, fmt.Errorf("неизвестный день недели %q", fields[1])
		}
		hour, minute, err := parseClock(fields[2])
		if err != nil {
			return Schedule{}, err
		}
		return Schedule{kind: scheduleWeekly, weekday: weekday, hour: hour, minute: minute}, nil
	default:
		return Schedule{}, fmt.Errorf("неизвестный вид расписания %q", fields[0])
	}
}

func parseClock(raw string) (int, int, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("некорректное время %q: %w", raw, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// Next возвращает ближайшее срабатывание строго после указанного момента.
func (s Schedule) Next(after time.Time) time.Time {
	after = after.UTC()
	switch s.kind {
	case scheduleEvery:
		return after.Add(s.interval).Truncate(time.Minute)
	case scheduleDaily:
		next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, time.UTC)
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case scheduleWeekly:
		next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, s.minute, 0, 0, time.UTC)
		days := (int(s.weekday) - int(after.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, days)
		if !next.After(after) {
			next = next.AddDate(0, 0, 7)
		}
		return next
	default:
		return after.Add(time.Hour)
	}
}
