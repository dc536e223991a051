package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"econews-digest/internal/domain"
	"econews-digest/internal/infra/metrics"
)

// ErrNoAPIKey возвращается, если ключ news API не настроен. Источник
// в этом случае пропускается, а не считается упавшим.
var ErrNoAPIKey = errors.New("ключ news API не задан")

// NewsAPISource ищет свежие статьи по ключевым словам через news API.
type NewsAPISource struct {
	http    *http.Client
	baseURL string
	apiKey  string
	query   string
	limit   int
}

// NewNewsAPISource создаёт источник поиска по ключевым словам.
func NewNewsAPISource(apiKey, baseURL, query string, limit int, client *http.Client) *NewsAPISource {
	if client == nil {
		client = &http.Client{}
	}
	if limit <= 0 {
		limit = 50
	}
	return &NewsAPISource{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		query:   query,
		limit:   limit,
	}
}

// Name возвращает идентификатор источника.
func (s *NewsAPISource) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch выполняет поисковый запрос и нормализует статьи.
func (s *NewsAPISource) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	if s.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", s.query)
	params.Set("pageSize", strconv.Itoa(s.limit))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	endpoint := s.baseURL + "/everything?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("feeds", "search", "newsapi", start, err)
		return nil, fmt.Errorf("newsapi: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("feeds", "search", "newsapi", start, err)
		return nil, fmt.Errorf("newsapi: read response: %w", err)
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.ObserveNetworkRequest("feeds", "search", "newsapi", start, err)
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if resp.StatusCode >= 400 || parsed.Status == "error" {
		err := fmt.Errorf("newsapi: status %d: %s", resp.StatusCode, parsed.Message)
		metrics.ObserveNetworkRequest("feeds", "search", "newsapi", start, err)
		return nil, err
	}
	metrics.ObserveNetworkRequest("feeds", "search", "newsapi", start, nil)

	now := time.Now().UTC()
	items := make([]domain.NewsItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		item := domain.NewsItem{
			URL:         a.URL,
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			item.PubDate = ts
		}
		items = append(items, normalize(item, now))
	}
	return items, nil
}
