package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"econews-digest/internal/domain"
	openai "econews-digest/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI строит контент рассылки через Chat Completions.
type OpenAI struct {
	client   chatClient
	model    string
	maxItems int
}

var _ domain.ContentGenerator = (*OpenAI)(nil)

// NewOpenAI создаёт генератора контента.
func NewOpenAI(client chatClient, model string, maxItems int) *OpenAI {
	if model == "" {
		model = "gpt-4.1-mini"
	}
	if maxItems <= 0 {
		maxItems = 10
	}
	return &OpenAI{client: client, model: model, maxItems: maxItems}
}

type newsletterPayload struct {
	Subject  string `json:"subject"`
	Intro    string `json:"intro"`
	Sections []struct {
		Category  string `json:"category"`
		Headlines []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"headlines"`
	} `json:"sections"`
}

// GenerateNewsletter строит выпуск рассылки по категоризированным новостям.
func (g *OpenAI) GenerateNewsletter(ctx context.Context, items []domain.NewsItem, kind domain.NewsletterKind) (domain.NewsletterContent, error) {
	if len(items) == 0 {
		return domain.NewsletterContent{}, fmt.Errorf("генерация выпуска: нет новостей")
	}

	prompt := fmt.Sprintf(`Составь экономическую новостную рассылку вида %q по списку статей.
Верни JSON формата {"subject": "...", "intro": "...", "sections": [{"category": "...", "headlines": [{"title": "...", "url": "..."}]}]} без пояснений.
Используй только перечисленные статьи, не выдумывай новых.
Статьи:
%s`, kind, renderItems(items, g.maxItems*2))

	content, err := g.complete(ctx, prompt)
	if err != nil {
		return domain.NewsletterContent{}, err
	}
	var parsed newsletterPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.NewsletterContent{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	if parsed.Subject == "" || len(parsed.Sections) == 0 {
		return domain.NewsletterContent{}, fmt.Errorf("генерация выпуска: пустой ответ LLM")
	}

	out := domain.NewsletterContent{
		Kind:        kind,
		Subject:     strings.TrimSpace(parsed.Subject),
		Intro:       strings.TrimSpace(parsed.Intro),
		GeneratedAt: time.Now().UTC(),
	}
	for _, sec := range parsed.Sections {
		section := domain.NewsletterSection{Category: sec.Category}
		for _, h := range sec.Headlines {
			if h.Title == "" || h.URL == "" {
				continue
			}
			section.Headlines = append(section.Headlines, domain.NewsletterLink{Title: h.Title, URL: h.URL})
		}
		if len(section.Headlines) > 0 {
			out.Sections = append(out.Sections, section)
		}
	}
	if len(out.Sections) == 0 {
		return domain.NewsletterContent{}, fmt.Errorf("генерация выпуска: секции без заголовков")
	}
	return out, nil
}

type digestPayload struct {
	Overview   string   `json:"overview"`
	Highlights []string `json:"highlights"`
}

// GenerateDailyDigest строит краткую сводку дня.
func (g *OpenAI) GenerateDailyDigest(ctx context.Context, items []domain.NewsItem, date string) (domain.DailyDigest, error) {
	if len(items) == 0 {
		return domain.DailyDigest{}, fmt.Errorf("генерация сводки: нет новостей")
	}

	prompt := fmt.Sprintf(`Составь краткую сводку экономических новостей за %s.
Верни JSON формата {"overview": "...", "highlights": ["..."]} без пояснений.
Статьи:
%s`, date, renderItems(items, g.maxItems))

	content, err := g.complete(ctx, prompt)
	if err != nil {
		return domain.DailyDigest{}, err
	}
	var parsed digestPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return domain.DailyDigest{}, fmt.Errorf("распаковка ответа LLM: %w", err)
	}
	if parsed.Overview == "" {
		return domain.DailyDigest{}, fmt.Errorf("генерация сводки: пустой ответ LLM")
	}
	return domain.DailyDigest{
		Date:       date,
		Overview:   strings.TrimSpace(parsed.Overview),
		Highlights: trimValues(parsed.Highlights),
	}, nil
}

func (g *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.3,
		MaxTokens:   900,
		Messages: []openai.ChatMessage{
			{
				Role:    openai.RoleSystem,
				Content: "Ты редактор экономической рассылки. Сохраняй факты из статей и не добавляй ничего от себя.",
			},
			{
				Role:    openai.RoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: пустой ответ")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func renderItems(items []domain.NewsItem, limit int) string {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. [%s] %s — %s (%s)\n", i+1, item.Category, item.Title, clipRunes(item.Description, 200), item.URL)
	}
	return b.String()
}

func trimValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
