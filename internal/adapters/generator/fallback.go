package generator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"econews-digest/internal/domain"
)

// Fallback — детерминированный генератор контента: фиксированный каркас
// из топ-N заголовков. Используется, когда внешняя генерация недоступна,
// чтобы подписчики в любом случае получили выпуск. Схема результата та
// же, что у основного генератора, — почтовый слой не отличает их.
type Fallback struct {
	maxItems int
}

var _ domain.ContentGenerator = (*Fallback)(nil)

// NewFallback создаёт запасной генератор.
func NewFallback(maxItems int) *Fallback {
	if maxItems <= 0 {
		maxItems = 10
	}
	return &Fallback{maxItems: maxItems}
}

var kindSubjects = map[domain.NewsletterKind]string{
	domain.KindDaily:         "Экономические новости дня",
	domain.KindWeeklyPreview: "Экономическая неделя: что впереди",
	domain.KindWeeklyReview:  "Экономическая неделя: итоги",
}

// GenerateNewsletter строит выпуск из топ-N самых свежих заголовков,
// сгруппированных по категориям. Полностью детерминирован на одном входе.
func (g *Fallback) GenerateNewsletter(_ context.Context, items []domain.NewsItem, kind domain.NewsletterKind) (domain.NewsletterContent, error) {
	if len(items) == 0 {
		return domain.NewsletterContent{}, fmt.Errorf("запасной выпуск: нет новостей")
	}

	top := topItems(items, g.maxItems)

	grouped := make(map[string][]domain.NewsletterLink)
	var order []string
	for _, item := range top {
		category := item.Category
		if category == "" {
			category = "general"
		}
		if _, ok := grouped[category]; !ok {
			order = append(order, category)
		}
		grouped[category] = append(grouped[category], domain.NewsletterLink{Title: item.Title, URL: item.URL})
	}

	subject, ok := kindSubjects[kind]
	if !ok {
		subject = kindSubjects[domain.KindDaily]
	}

	content := domain.NewsletterContent{
		Kind:        kind,
		Subject:     subject,
		Intro:       fmt.Sprintf("Подборка из %d главных экономических новостей.", len(top)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, category := range order {
		content.Sections = append(content.Sections, domain.NewsletterSection{
			Category:  category,
			Headlines: grouped[category],
		})
	}
	return content, nil
}

// GenerateDailyDigest строит сводку из заголовков без внешних вызовов.
func (g *Fallback) GenerateDailyDigest(_ context.Context, items []domain.NewsItem, date string) (domain.DailyDigest, error) {
	if len(items) == 0 {
		return domain.DailyDigest{}, fmt.Errorf("запасная сводка: нет новостей")
	}
	top := topItems(items, g.maxItems)
	highlights := make([]string, 0, len(top))
	for _, item := range top {
		highlights = append(highlights, item.Title)
	}
	return domain.DailyDigest{
		Date:       date,
		Overview:   fmt.Sprintf("За %s собрано %d экономических новостей.", date, len(items)),
		Highlights: highlights,
	}, nil
}

// topItems возвращает N самых свежих новостей; при равной дате порядок
// фиксируется по URL, чтобы результат был воспроизводим.
func topItems(items []domain.NewsItem, n int) []domain.NewsItem {
	sorted := append([]domain.NewsItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PubDate.Equal(sorted[j].PubDate) {
			return sorted[i].URL < sorted[j].URL
		}
		return sorted[i].PubDate.After(sorted[j].PubDate)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
