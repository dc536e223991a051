package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
)

// Client доставляет выпуски через REST API почтового провайдера.
// Получатели режутся на батчи на нашей стороне: у провайдера есть свой
// потолок размера батча. Ошибка одного батча учитывается в Failed и не
// прерывает остальные.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	from      string
	batchSize int
	log       zerolog.Logger
}

var _ domain.EmailSender = (*Client)(nil)

// NewClient создаёт почтового клиента.
func NewClient(baseURL, apiKey, from string, batchSize int, logger zerolog.Logger) *Client {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		from:      from,
		batchSize: batchSize,
		log:       logger,
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Send рассылает выпуск всем получателям батчами.
func (c *Client) Send(ctx context.Context, content domain.NewsletterContent, recipients []domain.Subscriber) (domain.SendReport, error) {
	if len(recipients) == 0 {
		return domain.SendReport{}, nil
	}

	body := renderText(content)
	var report domain.SendReport
	for start := 0; start < len(recipients); start += c.batchSize {
		end := start + c.batchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]
		if err := c.sendBatch(ctx, content.Subject, body, batch); err != nil {
			report.Failed += len(batch)
			metrics.EmailsFailedTotal.Add(float64(len(batch)))
			c.log.Warn().Err(err).Int("batch", len(batch)).Msg("почта: батч не отправлен")
			continue
		}
		report.Sent += len(batch)
		metrics.EmailsSentTotal.Add(float64(len(batch)))
	}
	c.log.Info().Int("sent", report.Sent).Int("failed", report.Failed).Str("kind", string(content.Kind)).Msg("почта: рассылка завершена")
	return report, nil
}

func (c *Client) sendBatch(ctx context.Context, subject, body string, batch []domain.Subscriber) error {
	emails := make([]string, len(batch))
	for i, sub := range batch {
		emails[i] = sub.Email
	}
	payload, err := json.Marshal(sendRequest{From: c.from, To: emails, Subject: subject, Text: body})
	if err != nil {
		return fmt.Errorf("почта: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("почта: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("mailer", "send", "provider", start, err)
		return fmt.Errorf("почта: do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("почта: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("mailer", "send", "provider", start, err)
		return err
	}
	metrics.ObserveNetworkRequest("mailer", "send", "provider", start, nil)
	return nil
}

// renderText собирает текстовое тело письма из секций выпуска.
func renderText(content domain.NewsletterContent) string {
	var b strings.Builder
	b.WriteString(content.Intro)
	b.WriteString("\n")
	for _, section := range content.Sections {
		fmt.Fprintf(&b, "\n== %s ==\n", section.Category)
		for _, h := range section.Headlines {
			fmt.Fprintf(&b, "- %s\n  %s\n", h.Title, h.URL)
		}
	}
	return b.String()
}
