package generator

import (
	"context"
	"testing"
	"time"

	"econews-digest/internal/domain"
)

func fallbackItems() []domain.NewsItem {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	return []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Inflation cools", Category: "policy", PubDate: base.Add(2 * time.Hour)},
		{URL: "https://b.com/2", Title: "Nasdaq rallies", Category: "markets", PubDate: base.Add(time.Hour)},
		{URL: "https://c.com/3", Title: "Dow slips", Category: "markets", PubDate: base},
		{URL: "https://d.com/4", Title: "Odd story", PubDate: base},
	}
}

func TestFallbackNewsletterIsDeterministic(t *testing.T) {
	gen := NewFallback(10)
	first, err := gen.GenerateNewsletter(context.Background(), fallbackItems(), domain.KindDaily)
	if err != nil {
		t.Fatalf("запасной выпуск: %v", err)
	}
	second, err := gen.GenerateNewsletter(context.Background(), fallbackItems(), domain.KindDaily)
	if err != nil {
		t.Fatalf("запасной выпуск: %v", err)
	}
	if first.Subject != second.Subject || len(first.Sections) != len(second.Sections) {
		t.Fatalf("одинаковый вход дал разные выпуски")
	}
	for i := range first.Sections {
		if first.Sections[i].Category != second.Sections[i].Category {
			t.Fatalf("порядок секций не воспроизводим")
		}
		if len(first.Sections[i].Headlines) != len(second.Sections[i].Headlines) {
			t.Fatalf("состав секции %s не воспроизводим", first.Sections[i].Category)
		}
	}
}

func TestFallbackNewsletterGroupsAndCaps(t *testing.T) {
	gen := NewFallback(2)
	content, err := gen.GenerateNewsletter(context.Background(), fallbackItems(), domain.KindWeeklyReview)
	if err != nil {
		t.Fatalf("запасной выпуск: %v", err)
	}
	total := 0
	for _, section := range content.Sections {
		total += len(section.Headlines)
	}
	if total != 2 {
		t.Fatalf("лимит топ-N не соблюдён: %d заголовков", total)
	}
	// Самая свежая новость идёт первой, секции — в порядке первого появления.
	if content.Sections[0].Category != "policy" {
		t.Fatalf("первая секция %q, ожидали policy", content.Sections[0].Category)
	}
	if content.Subject != kindSubjects[domain.KindWeeklyReview] {
		t.Fatalf("тема выпуска %q не соответствует виду", content.Subject)
	}
}

func TestFallbackNewsletterDefaultsCategory(t *testing.T) {
	gen := NewFallback(10)
	content, err := gen.GenerateNewsletter(context.Background(), []domain.NewsItem{
		{URL: "https://d.com/4", Title: "Odd story"},
	}, domain.KindDaily)
	if err != nil {
		t.Fatalf("запасной выпуск: %v", err)
	}
	if content.Sections[0].Category != "general" {
		t.Fatalf("новость без категории должна попадать в general, попала в %q", content.Sections[0].Category)
	}
}

func TestFallbackNewsletterEmptyInput(t *testing.T) {
	gen := NewFallback(10)
	if _, err := gen.GenerateNewsletter(context.Background(), nil, domain.KindDaily); err == nil {
		t.Fatalf("пустой вход должен давать ошибку")
	}
}

func TestFallbackDigest(t *testing.T) {
	gen := NewFallback(3)
	digest, err := gen.GenerateDailyDigest(context.Background(), fallbackItems(), "2026-08-30")
	if err != nil {
		t.Fatalf("запасная сводка: %v", err)
	}
	if digest.Date != "2026-08-30" || digest.Overview == "" {
		t.Fatalf("сводка собрана неверно: %+v", digest)
	}
	if len(digest.Highlights) != 3 {
		t.Fatalf("ожидали 3 заголовка, получили %d", len(digest.Highlights))
	}
	if digest.Highlights[0] != "Inflation cools" {
		t.Fatalf("первым должен идти самый свежий заголовок, идёт %q", digest.Highlights[0])
	}
}

func TestTopItemsTieBreaksOnURL(t *testing.T) {
	same := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	items := []domain.NewsItem{
		{URL: "https://z.com/1", Title: "Z", PubDate: same},
		{URL: "https://a.com/1", Title: "A", PubDate: same},
	}
	got := topItems(items, 2)
	if got[0].URL != "https://a.com/1" {
		t.Fatalf("при равной дате порядок должен фиксироваться по URL: %s", got[0].URL)
	}
}
