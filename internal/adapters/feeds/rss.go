package feeds

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"econews-digest/internal/domain"
)

// RSSSource читает один RSS/Atom фид через gofeed.
type RSSSource struct {
	url    string
	parser *gofeed.Parser
}

// NewRSSSource создаёт источник для указанного адреса фида.
func NewRSSSource(url string, client *http.Client) *RSSSource {
	parser := gofeed.NewParser()
	parser.UserAgent = "econews-digest/1.0"
	if client != nil {
		parser.Client = client
	}
	return &RSSSource{url: url, parser: parser}
}

// Name возвращает адрес фида как идентификатор источника.
func (s *RSSSource) Name() string {
	return s.url
}

// Fetch загружает и нормализует записи фида.
func (s *RSSSource) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("разбор фида %s: %w", s.url, err)
	}
	items := make([]domain.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item := domain.NewsItem{
			URL:         entry.Link,
			Title:       entry.Title,
			Description: entry.Description,
			Content:     entry.Content,
		}
		if item.URL == "" {
			item.URL = entry.GUID
		}
		if entry.PublishedParsed != nil {
			item.PubDate = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PubDate = *entry.UpdatedParsed
		}
		items = append(items, normalize(item, time.Now().UTC()))
	}
	return items, nil
}
