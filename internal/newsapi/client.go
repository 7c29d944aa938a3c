// Package newsapi fetches candidate articles from the NewsAPI
// "everything" endpoint for a configured keyword set.
package newsapi

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

	"newsdesk/internal/config"
	"newsdesk/internal/model"
)

var (
	// ErrSourceUnavailable means the upstream call did not return a success status.
	ErrSourceUnavailable = errors.New("news source unavailable")
	// ErrMalformedResponse means a successful response was missing the article list.
	ErrMalformedResponse = errors.New("malformed news source response")
	// ErrInvalidRange means the requested date range is inverted or reaches into the future.
	ErrInvalidRange = errors.New("invalid date range")
)

const dateFormat = "2006-01-02"

// Client queries NewsAPI. It holds no store state; dedup happens downstream.
type Client struct {
	baseURL    string
	apiKey     string
	keywords   []string
	language   string
	pageSize   int
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a NewsAPI client from configuration.
func NewClient(cfg config.NewsAPIConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		keywords:   cfg.Keywords,
		language:   cfg.Language,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Fetch retrieves articles for the configured keywords over the source's
// default rolling window.
func (c *Client) Fetch(ctx context.Context) ([]model.Article, error) {
	return c.fetch(ctx, time.Time{}, time.Time{})
}

// FetchRange retrieves articles bounded by [from, to]. Both bounds must be
// in the past and from must not be after to.
func (c *Client) FetchRange(ctx context.Context, from, to time.Time) ([]model.Article, error) {
	now := c.now()
	if from.After(to) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidRange, from.Format(dateFormat), to.Format(dateFormat))
	}
	if from.After(now) || to.After(now) {
		return nil, fmt.Errorf("%w: cannot fetch articles from future dates", ErrInvalidRange)
	}
	return c.fetch(ctx, from, to)
}

func (c *Client) fetch(ctx context.Context, from, to time.Time) ([]model.Article, error) {
	q := url.Values{}
	q.Set("q", strings.Join(c.keywords, " OR "))
	q.Set("language", c.language)
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("apiKey", c.apiKey)
	if !from.IsZero() {
		q.Set("from", from.Format(dateFormat))
	}
	if !to.IsZero() {
		q.Set("to", to.Format(dateFormat))
	}

	endpoint := c.baseURL + "/everything?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d message=%s",
			ErrSourceUnavailable, resp.StatusCode, errorMessage(resp.Body))
	}

	var parsed everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if parsed.Articles == nil {
		return nil, fmt.Errorf("%w: articles not found", ErrMalformedResponse)
	}

	articles := make([]model.Article, 0, len(*parsed.Articles))
	for _, raw := range *parsed.Articles {
		publishedAt, err := time.Parse(time.RFC3339, raw.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}
		articles = append(articles, model.Article{
			Title:       raw.Title,
			Description: raw.Description,
			Content:     raw.Content,
			SourceName:  raw.Source.Name,
			SourceURL:   raw.URL,
			PublishedAt: publishedAt,
		})
	}
	return articles, nil
}

// errorMessage extracts the upstream error message when present, falling
// back to the raw body.
func errorMessage(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 4096))
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &parsed); err == nil && strings.TrimSpace(parsed.Message) != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(b))
}

// The article list is a pointer so a successful response without the
// field is distinguishable from an empty list.
type everythingResponse struct {
	Status       string        `json:"status"`
	TotalResults int           `json:"totalResults"`
	Articles     *[]rawArticle `json:"articles"`
}

type rawArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}
