package domain

import "time"

// NewsItem — одна новость после нормализации источника. URL служит
// естественным идентификатором на всех этапах обработки.
type NewsItem struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	PubDate     time.Time `json:"pub_date"`
	Category    string    `json:"category,omitempty"`
}

// NewsStats — агрегаты по новостям одного дня.
type NewsStats struct {
	Date       string    `json:"date"`
	TotalItems int       `json:"total_items"`
	Sources    int       `json:"sources"`
	Categories int       `json:"categories"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Subscriber — подтверждённый получатель рассылки.
type Subscriber struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// NewsletterKind различает виды выпусков рассылки.
type NewsletterKind string

const (
	// KindDaily — ежедневный выпуск.
	KindDaily NewsletterKind = "daily"
	// KindWeeklyPreview — анонс недели.
	KindWeeklyPreview NewsletterKind = "weekly_preview"
	// KindWeeklyReview — итоги недели.
	KindWeeklyReview NewsletterKind = "weekly_review"
)

// NewsletterLink — заголовок со ссылкой на первоисточник.
type NewsletterLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// NewsletterSection группирует заголовки одной категории.
type NewsletterSection struct {
	Category  string           `json:"category"`
	Headlines []NewsletterLink `json:"headlines"`
}

// NewsletterContent — готовый к отправке выпуск. Основной и запасной
// генераторы возвращают одну и ту же схему.
type NewsletterContent struct {
	Kind        NewsletterKind      `json:"kind"`
	Subject     string              `json:"subject"`
	Intro       string              `json:"intro"`
	Sections    []NewsletterSection `json:"sections"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// DailyDigest — краткая сводка новостей за дату.
type DailyDigest struct {
	Date       string   `json:"date"`
	Overview   string   `json:"overview"`
	Highlights []string `json:"highlights"`
}

// SendReport — итог доставки выпуска получателям.
type SendReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
