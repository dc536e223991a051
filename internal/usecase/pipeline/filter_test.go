package pipeline

import (
	"strings"
	"testing"

	"econews-digest/internal/domain"
)

func TestFilterKeepsOnlyEconomicItems(t *testing.T) {
	items := []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Inflation hits new high"},
		{URL: "https://a.com/2", Title: "Local fair opens", Description: "crafts and pottery"},
		{URL: "https://a.com/3", Title: "Quiet day", Content: "the central bank kept rates unchanged"},
	}
	got := Filter(items)
	if len(got) != 2 {
		t.Fatalf("ожидали 2 новости после фильтра, получили %d", len(got))
	}
	for _, item := range got {
		if !isEconomicallyRelevant(item) {
			t.Fatalf("новость %s прошла фильтр без ключевого слова", item.URL)
		}
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	items := []domain.NewsItem{{URL: "https://a.com/1", Title: "INFLATION report"}}
	if got := Filter(items); len(got) != 1 {
		t.Fatalf("ожидали совпадение без учёта регистра")
	}
}

func TestFilterRejectsItemWithoutKeywords(t *testing.T) {
	items := []domain.NewsItem{{
		URL:         "https://a.com/1",
		Title:       "Sports roundup",
		Description: "the match ended in a draw",
		Content:     "fans celebrated all night",
	}}
	for _, kw := range economicKeywords {
		haystack := strings.ToLower(items[0].Title + " " + items[0].Description + " " + items[0].Content)
		if strings.Contains(haystack, kw) {
			t.Fatalf("тестовая новость содержит ключевое слово %q", kw)
		}
	}
	if got := Filter(items); len(got) != 0 {
		t.Fatalf("новость без ключевых слов не должна пройти фильтр")
	}
}
