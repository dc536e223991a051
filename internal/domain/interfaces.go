package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss возвращается кэшем, если ключ отсутствует.
var ErrCacheMiss = errors.New("ключ не найден в кэше")

// CacheEntry описывает одну запись пакетной операции кэша.
type CacheEntry struct {
	Key   string
	Value string
	TTL   time.Duration
}

// Cache — TTL-хранилище ключ-значение. Пакетные операции выполняются
// одним пайплайном, а не N запросами.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	BatchGet(ctx context.Context, keys []string) (map[string]string, error)
	BatchSet(ctx context.Context, entries []CacheEntry) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// FeedFetcher собирает сырые новости со всех настроенных источников.
// Ошибка одного источника не прерывает остальные: источник просто
// не даёт ни одной новости.
type FeedFetcher interface {
	FetchAll(ctx context.Context) []NewsItem
}

// ContentGenerator строит контент рассылки. Обе операции могут вернуть
// ошибку — у вызывающего обязан быть детерминированный запасной вариант.
type ContentGenerator interface {
	GenerateNewsletter(ctx context.Context, items []NewsItem, kind NewsletterKind) (NewsletterContent, error)
	GenerateDailyDigest(ctx context.Context, items []NewsItem, date string) (DailyDigest, error)
}

// EmailSender доставляет выпуск получателям. Провайдер сам разбивает
// получателей на батчи.
type EmailSender interface {
	Send(ctx context.Context, content NewsletterContent, recipients []Subscriber) (SendReport, error)
}

// SubscriberRepo возвращает список подтверждённых подписчиков.
type SubscriberRepo interface {
	GetConfirmedSubscribers(ctx context.Context) ([]Subscriber, error)
}
