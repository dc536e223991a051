package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/usecase/newsstore"
)

type stubFetcher struct {
	items []domain.NewsItem
}

func (f *stubFetcher) FetchAll(ctx context.Context) []domain.NewsItem {
	return f.items
}

// memCache — кэш в памяти для тестов. При fail=true все операции
// возвращают ошибку, имитируя недоступный Redis.
type memCache struct {
	data      map[string]string
	batchSets int
	fail      bool
}

var _ domain.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

var errCacheDown = errors.New("кэш недоступен")

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	if c.fail {
		return "", errCacheDown
	}
	val, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return val, nil
}

func (c *memCache) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.fail {
		return errCacheDown
	}
	c.data[key] = value
	return nil
}

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.fail {
		return false, errCacheDown
	}
	_, ok := c.data[key]
	return ok, nil
}

func (c *memCache) BatchGet(ctx context.Context, keys []string) (map[string]string, error) {
	if c.fail {
		return nil, errCacheDown
	}
	out := make(map[string]string)
	for _, key := range keys {
		if val, ok := c.data[key]; ok {
			out[key] = val
		}
	}
	return out, nil
}

func (c *memCache) BatchSet(ctx context.Context, entries []domain.CacheEntry) error {
	if c.fail {
		return errCacheDown
	}
	c.batchSets++
	for _, e := range entries {
		c.data[e.Key] = e.Value
	}
	return nil
}

func (c *memCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if c.fail {
		return nil, errCacheDown
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	if c.fail {
		return errCacheDown
	}
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func TestRunStoresFilteredCategorizedItems(t *testing.T) {
	now := time.Now().UTC()
	fetcher := &stubFetcher{items: []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Inflation cools in July", PubDate: now},
		{URL: "https://b.com/2", Title: "Nasdaq closes at record high on earnings", PubDate: now},
		{URL: "https://c.com/3", Title: "Sports roundup", PubDate: now},
		{URL: "https://d.com/4", Title: "Weather stays warm", PubDate: now},
		{URL: "https://e.com/5", Title: "Recipe of the week", PubDate: now},
	}}
	cache := newMemCache()
	svc := NewService(fetcher, newsstore.NewStore(cache, zerolog.Nop()), zerolog.Nop())

	got := svc.Run(context.Background())
	if len(got) != 2 {
		t.Fatalf("ожидали 2 новости на выходе пайплайна, получили %d", len(got))
	}
	for _, item := range got {
		if item.Category == "" {
			t.Fatalf("новость %s осталась без категории", item.URL)
		}
	}

	date := newsstore.DateOf(now)
	stored := newsstore.NewStore(cache, zerolog.Nop()).ReadDay(context.Background(), date)
	if len(stored) != 2 {
		t.Fatalf("ожидали 2 сохранённые новости, прочитали %d", len(stored))
	}
	if _, ok := cache.data[newsstore.StatsKey(date)]; !ok {
		t.Fatalf("агрегаты дня не записаны")
	}
	for _, stage := range []newsstore.Stage{newsstore.StageFiltered, newsstore.StageDeduplicated, newsstore.StageCategorized} {
		if _, ok := cache.data[newsstore.StageKey(stage, date)]; !ok {
			t.Fatalf("снимок этапа %s не записан", stage)
		}
	}
}

func TestRunSkipsWriteOnEmptyFetch(t *testing.T) {
	cache := newMemCache()
	svc := NewService(&stubFetcher{}, newsstore.NewStore(cache, zerolog.Nop()), zerolog.Nop())

	if got := svc.Run(context.Background()); got != nil {
		t.Fatalf("пустой улов должен давать nil, получили %d новостей", len(got))
	}
	if len(cache.data) != 0 {
		t.Fatalf("пустой проход не должен писать в кэш")
	}
}

func TestRunSurvivesCacheOutage(t *testing.T) {
	fetcher := &stubFetcher{items: []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Inflation cools in July", PubDate: time.Now()},
	}}
	cache := newMemCache()
	cache.fail = true
	svc := NewService(fetcher, newsstore.NewStore(cache, zerolog.Nop()), zerolog.Nop())

	got := svc.Run(context.Background())
	if len(got) != 1 {
		t.Fatalf("недоступный кэш не должен ломать проход, получили %d новостей", len(got))
	}
}

func TestSummarize(t *testing.T) {
	items := []domain.NewsItem{
		{URL: "https://a.com/1", Category: "markets"},
		{URL: "https://a.com/2", Category: "policy"},
		{URL: "https://b.com/3", Category: "markets"},
	}
	got := Summarize(items)
	if got.TotalItems != 3 || got.Categories != 2 || got.Sources != 2 {
		t.Fatalf("неверная сводка: %+v", got)
	}
}
