package newsstore

import (
	"encoding/base64"
	"strings"
	"time"
)

// Stage идентифицирует промежуточный снимок пайплайна.
type Stage string

const (
	// StageFiltered — после фильтра релевантности.
	StageFiltered Stage = "filtered"
	// StageDeduplicated — после дедупликации.
	StageDeduplicated Stage = "deduplicated"
	// StageCategorized — после категоризации.
	StageCategorized Stage = "categorized"
)

// Ключи строятся детерминированно из смысловых частей, чтобы любой
// вызывающий мог вывести ключ без таблицы соответствий.
const (
	prefixItem   = "news:item:"
	prefixDaily  = "news:daily:"
	prefixStats  = "news:stats:"
	prefixExists = "news:exists:"
	prefixStage  = "news:"
)

// dateLayout — календарная дата UTC в ключах.
const dateLayout = "2006-01-02"

// DateOf возвращает ключевую дату для момента времени.
func DateOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// ItemKey строит ключ новости. Чистая функция от URL.
func ItemKey(url string) string {
	return prefixItem + base64.RawURLEncoding.EncodeToString([]byte(url))
}

// DailyKey строит ключ дневного индекса.
func DailyKey(date string) string {
	return prefixDaily + date
}

// StatsKey строит ключ агрегатов за дату.
func StatsKey(date string) string {
	return prefixStats + date
}

// ExistsKey строит ключ маркера наличия новостей за дату.
func ExistsKey(date string) string {
	return prefixExists + date
}

// StageKey строит ключ промежуточного снимка пайплайна.
func StageKey(stage Stage, date string) string {
	return prefixStage + string(stage) + ":" + date
}

// DefaultTTL применяется к ключам без подходящего префикса.
const DefaultTTL = time.Hour

// ttlPolicy задаёт время жизни по префиксу ключа; выигрывает самый
// длинный совпавший префикс.
var ttlPolicy = []struct {
	prefix string
	ttl    time.Duration
}{
	{"news:item", 7 * 24 * time.Hour},
	{"news:daily", 3 * 24 * time.Hour},
	{"news:stats", 7 * 24 * time.Hour},
	{"news:filtered", 2 * 24 * time.Hour},
	{"news:deduplicated", 2 * 24 * time.Hour},
	{"news:categorized", 2 * 24 * time.Hour},
	{"news:exists", time.Hour},
}

// TTLFor возвращает время жизни для ключа согласно политике.
func TTLFor(key string) time.Duration {
	best := -1
	ttl := DefaultTTL
	for _, rule := range ttlPolicy {
		if strings.HasPrefix(key, rule.prefix) && len(rule.prefix) > best {
			best = len(rule.prefix)
			ttl = rule.ttl
		}
	}
	return ttl
}
