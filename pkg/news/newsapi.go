package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultNewsAPIURL = "https://newsapi.org/v2/everything"

type NewsAPIClient struct {
	apiKey     string
	endpoint   string
	language   string
	httpClient *http.Client
}

func NewNewsAPIClient(apiKey, endpoint, language string) *NewsAPIClient {
	if endpoint == "" {
		endpoint = DefaultNewsAPIURL
	}
	return &NewsAPIClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		language:   language,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *NewsAPIClient) Name() string {
	return "NewsAPI"
}

func (c *NewsAPIClient) Fetch(ctx context.Context, topic string, limit int) ([]Article, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("pageSize", strconv.Itoa(limit))
	if c.language != "" {
		params.Set("language", c.language)
	}
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	defer resp.Body.Close()

	var raw newsAPIResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&raw)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && raw.Message != "" {
			return nil, fmt.Errorf("newsapi status %d: %s: %s", resp.StatusCode, raw.Code, raw.Message)
		}
		return nil, fmt.Errorf("newsapi status %d", resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("newsapi decode: %w", decodeErr)
	}

	if raw.Status != "" && raw.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s: %s", raw.Code, raw.Message)
	}

	return convertArticles(raw.Articles, limit), nil
}
