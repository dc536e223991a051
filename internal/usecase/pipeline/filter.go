package pipeline

import (
	"strings"

	"econews-digest/internal/domain"
)

// economicKeywords — фиксированный список терминов фильтра релевантности.
// Одного совпадения достаточно, частичного скоринга нет.
var economicKeywords = []string{
	"economy",
	"economic",
	"inflation",
	"recession",
	"gdp",
	"interest rate",
	"central bank",
	"federal reserve",
	"stock",
	"bond",
	"market",
	"unemployment",
	"fiscal",
	"monetary",
	"tariff",
	"currency",
	"crypto",
	"earnings",
}

// Filter оставляет только новости, похожие на экономические. Чистая
// синхронная функция: регистронезависимый поиск подстроки по
// склейке заголовка, описания и текста.
func Filter(items []domain.NewsItem) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if isEconomicallyRelevant(item) {
			out = append(out, item)
		}
	}
	return out
}

func isEconomicallyRelevant(item domain.NewsItem) bool {
	haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.Content)
	for _, kw := range economicKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
