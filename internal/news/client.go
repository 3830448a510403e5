package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"newsrank/internal/models"
)

const (
	breakerMaxRequests      = 3
	breakerInterval         = 60 * time.Second
	breakerTimeout          = 30 * time.Second
	breakerFailureThreshold = 5

	statusOK = "ok"
)

// ProviderError reports a failed or malformed content-provider response.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("news provider: %v", e.Err)
	}
	return fmt.Sprintf("news provider: unexpected HTTP status %d", e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client fetches articles from a NewsAPI-style endpoint. Every call runs
// through a circuit breaker so a dead provider fails fast instead of
// stalling each feed request for the full client timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]models.Article]
	log        *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "news-provider",
		MaxRequests: breakerMaxRequests,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Provider circuit breaker state is changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]models.Article](settings),
		log:        log,
	}
}

// Fetch requests one page of articles for the given query. The returned
// articles carry the query string as their category; callers relabel it
// when the query was derived from a category keyword map.
func (c *Client) Fetch(
	ctx context.Context,
	query string,
	page int,
	pageSize int,
) ([]models.Article, error) {
	return c.breaker.Execute(func() ([]models.Article, error) {
		return c.fetch(ctx, query, page, pageSize)
	})
}

type providerEnvelope struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
	} `json:"articles"`
}

func (c *Client) fetch(
	ctx context.Context,
	query string,
	page int,
	pageSize int,
) ([]models.Article, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	requestURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"query", query)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &ProviderError{StatusCode: resp.StatusCode}
	}

	var envelope providerEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("decode response: %w", err)}
	}

	// A present but non-ok status is how the provider reports an empty or
	// unusable result set; it degrades to no articles, not an error.
	if envelope.Status != statusOK {
		return nil, nil
	}

	articles := make([]models.Article, 0, len(envelope.Articles))
	for _, item := range envelope.Articles {
		articles = append(articles, models.Article{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			ImageURL:    item.URLToImage,
			Category:    query,
		})
	}

	return articles, nil
}
