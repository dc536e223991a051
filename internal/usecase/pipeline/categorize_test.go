package pipeline

import (
	"testing"

	"econews-digest/internal/domain"
)

func TestCategorizeAssignsByKeyword(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Nasdaq closes at record high", "markets"},
		{"Federal Reserve signals pause", "policy"},
		{"New tariff on steel imports", "global"},
		{"Semiconductor demand keeps growing", "tech"},
		{"Bitcoin slips below support", "crypto"},
		{"Consumer spending stays resilient", "general"},
	}
	for _, tc := range cases {
		got := Categorize([]domain.NewsItem{{URL: "https://a.com/1", Title: tc.title}})
		if got[0].Category != tc.want {
			t.Errorf("заголовок %q: категория %q, ожидали %q", tc.title, got[0].Category, tc.want)
		}
	}
}

func TestCategorizePriorityOrder(t *testing.T) {
	// markets выигрывает у crypto при совпадении обоих правил.
	item := domain.NewsItem{URL: "https://a.com/1", Title: "Crypto stocks surge on bitcoin ETF news"}
	got := Categorize([]domain.NewsItem{item})
	if got[0].Category != "markets" {
		t.Fatalf("при пересечении правил ожидали markets, получили %q", got[0].Category)
	}
}

func TestCategorizeIsTotal(t *testing.T) {
	items := []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Something unrelated entirely"},
		{URL: "https://a.com/2", Title: "Inflation cools in July"},
		{URL: "https://a.com/3", Title: "Weather stays warm"},
	}
	got := Categorize(items)
	if len(got) != len(items) {
		t.Fatalf("категоризация изменила количество: %d -> %d", len(items), len(got))
	}
	for i, item := range got {
		if item.Category == "" {
			t.Fatalf("новость %d осталась без категории", i)
		}
		if item.URL != items[i].URL {
			t.Fatalf("категоризация изменила порядок на позиции %d", i)
		}
	}
}

func TestCategorizeIdempotent(t *testing.T) {
	items := Categorize([]domain.NewsItem{{URL: "https://a.com/1", Title: "Inflation cools in July"}})
	again := Categorize(items)
	if again[0].Category != items[0].Category {
		t.Fatalf("повторная категоризация изменила тег: %q -> %q", items[0].Category, again[0].Category)
	}
}
