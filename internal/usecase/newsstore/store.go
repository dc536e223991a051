package newsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
)

// Виды записей версионированного конверта. Поломка декодирования даёт
// типизированную ошибку, а не непрозрачный сбой парсинга.
const (
	kindItem  = "news_item"
	kindIndex = "daily_index"
	kindStats = "news_stats"
	kindStage = "stage_snapshot"

	envelopeVersion = 1
)

// ErrBadEnvelope возвращается при несовпадении вида или версии записи.
var ErrBadEnvelope = errors.New("неизвестный вид или версия записи кэша")

type envelope struct {
	Kind    string          `json:"kind"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(kind string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("сериализация %s: %w", kind, err)
	}
	enc, err := json.Marshal(envelope{Kind: kind, Version: envelopeVersion, Payload: raw})
	if err != nil {
		return "", fmt.Errorf("сериализация конверта %s: %w", kind, err)
	}
	return string(enc), nil
}

func decodeEnvelope(raw, wantKind string, out any) error {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return fmt.Errorf("разбор конверта: %w", err)
	}
	if env.Kind != wantKind || env.Version != envelopeVersion {
		return fmt.Errorf("%w: %s v%d", ErrBadEnvelope, env.Kind, env.Version)
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return fmt.Errorf("разбор %s: %w", wantKind, err)
	}
	return nil
}

// Store инкапсулирует раскладку ключей и TTL-политику поверх кэша.
// Кэш — ускоритель, а не система записи: любая его недоступность
// деградирует до пустых чтений и пропущенных записей с предупреждением,
// наружу ошибка не уходит.
type Store struct {
	cache domain.Cache
	log   zerolog.Logger
}

// NewStore создаёт хранилище новостей.
func NewStore(cache domain.Cache, logger zerolog.Logger) *Store {
	return &Store{cache: cache, log: logger}
}

// StoreDay записывает дневную партию одним пайплайном: ключи новостей,
// дополненный дневной индекс, пересчитанные агрегаты и маркер наличия —
// вместе, чтобы читатель сразу после записи не увидел день наполовину.
// Возвращает число записанных новостей (0, если кэш недоступен).
func (s *Store) StoreDay(ctx context.Context, date string, items []domain.NewsItem) int {
	if len(items) == 0 {
		return 0
	}

	merged, order := s.mergeWithExisting(ctx, date, items)

	entries := make([]domain.CacheEntry, 0, len(items)+3)
	for _, item := range items {
		key := ItemKey(item.URL)
		val, err := encodeEnvelope(kindItem, item)
		if err != nil {
			s.log.Warn().Err(err).Str("url", item.URL).Msg("кэш: новость не сериализована, пропущена")
			continue
		}
		entries = append(entries, domain.CacheEntry{Key: key, Value: val, TTL: TTLFor(key)})
	}

	indexKey := DailyKey(date)
	indexVal, err := encodeEnvelope(kindIndex, order)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: индекс дня не сериализован")
		return 0
	}
	entries = append(entries, domain.CacheEntry{Key: indexKey, Value: indexVal, TTL: TTLFor(indexKey)})

	stats := computeStats(date, merged)
	statsKey := StatsKey(date)
	statsVal, err := encodeEnvelope(kindStats, stats)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: агрегаты дня не сериализованы")
		return 0
	}
	entries = append(entries, domain.CacheEntry{Key: statsKey, Value: statsVal, TTL: TTLFor(statsKey)})

	existsKey := ExistsKey(date)
	entries = append(entries, domain.CacheEntry{Key: existsKey, Value: "1", TTL: TTLFor(existsKey)})

	if err := s.cache.BatchSet(ctx, entries); err != nil {
		metrics.IncCacheError("batch_set")
		s.log.Warn().Err(err).Str("date", date).Msg("кэш недоступен, дневная партия не записана")
		return 0
	}
	s.log.Info().Str("date", date).Int("items", len(items)).Int("total", len(order)).Msg("дневная партия записана в кэш")
	return len(items)
}

// mergeWithExisting сливает новую партию с уже сохранёнными за день
// новостями: новые версии вытесняют старые по URL, порядок индекса
// сохраняется, новые URL дописываются в конец.
func (s *Store) mergeWithExisting(ctx context.Context, date string, items []domain.NewsItem) ([]domain.NewsItem, []string) {
	existingOrder := s.readIndex(ctx, date)
	existing := s.hydrate(ctx, existingOrder)

	byURL := make(map[string]domain.NewsItem, len(existing)+len(items))
	for _, item := range existing {
		byURL[item.URL] = item
	}
	order := make([]string, 0, len(existingOrder)+len(items))
	seen := make(map[string]struct{}, len(existingOrder)+len(items))
	for _, u := range existingOrder {
		if _, ok := byURL[u]; !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		order = append(order, u)
	}
	for _, item := range items {
		byURL[item.URL] = item
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		order = append(order, item.URL)
	}

	merged := make([]domain.NewsItem, 0, len(order))
	for _, u := range order {
		merged = append(merged, byURL[u])
	}
	return merged, order
}

// HasDay дёшево проверяет наличие новостей за дату по маркеру.
func (s *Store) HasDay(ctx context.Context, date string) bool {
	ok, err := s.cache.Exists(ctx, ExistsKey(date))
	if err != nil {
		metrics.IncCacheError("exists")
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: проверка маркера не удалась")
		return false
	}
	return ok
}

// ReadDay возвращает все новости за дату. Сначала проверяется дешёвый
// маркер наличия, затем индекс гидрируется одним пакетным чтением.
// Нечитаемые записи пропускаются с логом, а не валят всё чтение.
func (s *Store) ReadDay(ctx context.Context, date string) []domain.NewsItem {
	if !s.HasDay(ctx, date) {
		return nil
	}
	return s.hydrate(ctx, s.readIndex(ctx, date))
}

func (s *Store) readIndex(ctx context.Context, date string) []string {
	raw, err := s.cache.Get(ctx, DailyKey(date))
	if errors.Is(err, domain.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		metrics.IncCacheError("get")
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: индекс дня не прочитан")
		return nil
	}
	var order []string
	if err := decodeEnvelope(raw, kindIndex, &order); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: индекс дня не разобран")
		return nil
	}
	return order
}

func (s *Store) hydrate(ctx context.Context, urls []string) []domain.NewsItem {
	if len(urls) == 0 {
		return nil
	}
	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = ItemKey(u)
	}
	values, err := s.cache.BatchGet(ctx, keys)
	if err != nil {
		metrics.IncCacheError("batch_get")
		s.log.Warn().Err(err).Msg("кэш: пакетное чтение новостей не удалось")
		return nil
	}
	items := make([]domain.NewsItem, 0, len(urls))
	skipped := 0
	for _, key := range keys {
		raw, ok := values[key]
		if !ok {
			skipped++
			continue
		}
		var item domain.NewsItem
		if err := decodeEnvelope(raw, kindItem, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Int("total", len(urls)).Msg("кэш: часть записей индекса не восстановлена")
	}
	return items
}

// ReadStats возвращает агрегаты за дату.
func (s *Store) ReadStats(ctx context.Context, date string) (domain.NewsStats, bool) {
	raw, err := s.cache.Get(ctx, StatsKey(date))
	if errors.Is(err, domain.ErrCacheMiss) {
		return domain.NewsStats{}, false
	}
	if err != nil {
		metrics.IncCacheError("get")
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: агрегаты дня не прочитаны")
		return domain.NewsStats{}, false
	}
	var stats domain.NewsStats
	if err := decodeEnvelope(raw, kindStats, &stats); err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("кэш: агрегаты дня не разобраны")
		return domain.NewsStats{}, false
	}
	return stats, true
}

// SaveStage сохраняет промежуточный снимок пайплайна за дату.
func (s *Store) SaveStage(ctx context.Context, stage Stage, date string, items []domain.NewsItem) {
	key := StageKey(stage, date)
	val, err := encodeEnvelope(kindStage, items)
	if err != nil {
		s.log.Warn().Err(err).Str("stage", string(stage)).Msg("кэш: снимок этапа не сериализован")
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, val, TTLFor(key)); err != nil {
		metrics.IncCacheError("set")
		s.log.Warn().Err(err).Str("stage", string(stage)).Msg("кэш: снимок этапа не записан")
	}
}

// Cleanup удаляет данные за даты старше retention: новости из дневных
// индексов и все ключи с датой в имени. Ключи, чей индекс уже истёк по
// TTL, добирает сама TTL-политика. Возвращает число удалённых ключей.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) int {
	cutoff := time.Now().UTC().Add(-retention).Format(dateLayout)
	patterns := []string{
		prefixDaily + "*",
		prefixStats + "*",
		prefixExists + "*",
		prefixStage + string(StageFiltered) + ":*",
		prefixStage + string(StageDeduplicated) + ":*",
		prefixStage + string(StageCategorized) + ":*",
	}

	var toDelete []string
	for _, pattern := range patterns {
		keys, err := s.cache.Keys(ctx, pattern)
		if err != nil {
			metrics.IncCacheError("keys")
			s.log.Warn().Err(err).Str("pattern", pattern).Msg("кэш: перечисление ключей не удалось")
			continue
		}
		for _, key := range keys {
			date := key[strings.LastIndex(key, ":")+1:]
			if len(date) != len(dateLayout) || date >= cutoff {
				continue
			}
			if strings.HasPrefix(key, prefixDaily) {
				for _, u := range s.readIndex(ctx, date) {
					toDelete = append(toDelete, ItemKey(u))
				}
			}
			toDelete = append(toDelete, key)
		}
	}
	if len(toDelete) == 0 {
		return 0
	}
	if err := s.cache.Delete(ctx, toDelete...); err != nil {
		metrics.IncCacheError("delete")
		s.log.Warn().Err(err).Msg("кэш: удаление устаревших ключей не удалось")
		return 0
	}
	s.log.Info().Int("keys", len(toDelete)).Str("cutoff", cutoff).Msg("кэш: устаревшие ключи удалены")
	return len(toDelete)
}

// computeStats пересчитывает агрегаты дня по всем его новостям.
func computeStats(date string, items []domain.NewsItem) domain.NewsStats {
	sources := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, item := range items {
		if u, err := url.Parse(item.URL); err == nil && u.Host != "" {
			sources[u.Host] = struct{}{}
		}
		if item.Category != "" {
			categories[item.Category] = struct{}{}
		}
	}
	return domain.NewsStats{
		Date:       date,
		TotalItems: len(items),
		Sources:    len(sources),
		Categories: len(categories),
		FetchedAt:  time.Now().UTC(),
	}
}
