package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"econews-digest/internal/domain"
)

const (
	// duplicateThreshold — порог Жаккара, строго выше которого пара
	// считается дубликатом. Ровно 0.8 — ещё не дубликат.
	duplicateThreshold = 0.8
	// titleKeyMaxTokens ограничивает ключ заголовка первыми токенами.
	titleKeyMaxTokens = 8
	// titleKeyMinTokenLen отсекает короткие служебные слова.
	titleKeyMinTokenLen = 3
)

// Dedupe схлопывает почти одинаковые новости из разных источников.
// Новости сортируются по убыванию даты публикации, поэтому из пары
// дубликатов выживает более свежая. Порядок результата не обязан
// совпадать со входным.
//
// Сравнение каждого кандидата со всеми принятыми даёт O(n²) — приемлемо
// на дневных объёмах в десятки-сотни новостей; при росте входа кандидатов
// надо сначала группировать по грубому префиксному хэшу.
func Dedupe(items []domain.NewsItem) []domain.NewsItem {
	sorted := append([]domain.NewsItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PubDate.After(sorted[j].PubDate)
	})

	seenURL := make(map[string]struct{}, len(sorted))
	accepted := make([]domain.NewsItem, 0, len(sorted))
	acceptedKeys := make([]map[string]struct{}, 0, len(sorted))

	for _, item := range sorted {
		if _, ok := seenURL[item.URL]; ok {
			continue
		}
		key := tokenSet(TitleKey(item.Title))
		duplicate := false
		for _, prev := range acceptedKeys {
			if jaccard(key, prev) > duplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seenURL[item.URL] = struct{}{}
		acceptedKeys = append(acceptedKeys, key)
		accepted = append(accepted, item)
	}
	return accepted
}

// TitleKey нормализует заголовок в ключ сравнения: нижний регистр, без
// пунктуации, схлопнутые пробелы, первые 8 токенов длиннее 3 символов.
func TitleKey(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, title)

	tokens := make([]string, 0, titleKeyMaxTokens)
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= titleKeyMinTokenLen {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == titleKeyMaxTokens {
			break
		}
	}
	return strings.Join(tokens, " ")
}

func tokenSet(key string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(key) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard считает |A∩B| / |A∪B| по множествам токенов.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
