package pipeline

import (
	"strings"

	"econews-digest/internal/domain"
)

// CategoryGeneral присваивается новостям, не подошедшим ни под одну группу.
const CategoryGeneral = "general"

// categoryRules проверяются в фиксированном порядке приоритета,
// выигрывает первое совпадение.
var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"markets", []string{"stock", "s&p", "nasdaq", "dow", "bond", "equity", "shares", "earnings", "ipo"}},
	{"policy", []string{"fed", "federal reserve", "central bank", "interest rate", "inflation", "fiscal", "monetary", "regulation", "tax"}},
	{"global", []string{"trade", "tariff", "export", "import", "global", "china", "europe", "imf", "world bank"}},
	{"tech", []string{"tech", "artificial intelligence", " ai ", "startup", "semiconductor", "software"}},
	{"crypto", []string{"crypto", "bitcoin", "ethereum", "blockchain", "token", "defi"}},
}

// Categorize присваивает каждой новости тег из фиксированной таксономии.
// Тотальна и сохраняет порядок: на выходе ровно len(items) новостей с
// непустой категорией. Идемпотентна — существующий тег не участвует в
// проверке и пересчитывается одинаково.
func Categorize(items []domain.NewsItem) []domain.NewsItem {
	out := make([]domain.NewsItem, len(items))
	for i, item := range items {
		item.Category = categoryOf(item)
		out[i] = item
	}
	return out
}

func categoryOf(item domain.NewsItem) string {
	haystack := " " + strings.ToLower(item.Title+" "+item.Description+" "+item.Content) + " "
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.name
			}
		}
	}
	return CategoryGeneral
}
