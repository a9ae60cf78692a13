// Package websearch queries a Google Custom Search compatible endpoint for phone
// information. Every failure degrades to an empty result list.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	commonerrors "shopping-assistant/internal/common/errors"
	commonhttp "shopping-assistant/internal/common/http"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

var whitespace = regexp.MustCompile(`\s+`)

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
	now    func() time.Time
}

func New(cfg *Config, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "web-search",
		}),
		now: time.Now,
	}
}

// Search looks up text with the phone-specific suffix appended. A non-positive limit uses
// the configured default.
func (c *Client) Search(ctx context.Context, text string, limit int) []models.SearchResult {
	return c.run(ctx, c.buildQuery(text), limit)
}

// SearchComparison looks up a head-to-head comparison of two phones.
func (c *Client) SearchComparison(ctx context.Context, first, second string) []models.SearchResult {
	return c.Search(ctx, fmt.Sprintf(comparisonQueryFormat, first, second), comparisonResults)
}

// SearchLatest looks up recent releases, e.g. category "best" or "gaming".
func (c *Client) SearchLatest(ctx context.Context, category string) []models.SearchResult {
	if strings.TrimSpace(category) == "" {
		category = "best"
	}
	year := c.now().Year()
	return c.Search(ctx, fmt.Sprintf(latestQueryFormat, category, year-1, year), latestResults)
}

func (c *Client) run(ctx context.Context, query string, limit int) []models.SearchResult {
	results, err := c.execute(ctx, query, limit)
	switch {
	case errors.Is(err, ErrWebSearchDisabled):
		metrics.WebSearchRequests.WithLabelValues("disabled").Inc()
		return []models.SearchResult{}
	case errors.Is(err, ErrWebSearchTimeout):
		metrics.WebSearchRequests.WithLabelValues("timeout").Inc()
		c.logWarn(query, err)
		return []models.SearchResult{}
	case err != nil:
		metrics.WebSearchRequests.WithLabelValues("error").Inc()
		c.logWarn(query, err)
		return []models.SearchResult{}
	}

	if len(results) == 0 {
		metrics.WebSearchRequests.WithLabelValues("empty").Inc()
	} else {
		metrics.WebSearchRequests.WithLabelValues("success").Inc()
	}
	c.logger.Info("web search completed", map[string]interface{}{
		"query":       query,
		"resultCount": len(results),
	})
	return results
}

func (c *Client) execute(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if !c.config.Enabled || c.config.APIKey == "" || c.config.EngineID == "" {
		return nil, ErrWebSearchDisabled
	}

	searchURL, err := c.buildSearchURL(query, limit)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, searchURL, nil, nil, &resp); err != nil {
		if ctx.Err() == context.DeadlineExceeded ||
			strings.Contains(err.Error(), "deadline") ||
			strings.Contains(err.Error(), "Client.Timeout") {
			return nil, ErrWebSearchTimeout
		}
		return nil, err
	}

	return processResults(resp.Items), nil
}

func (c *Client) buildQuery(text string) string {
	query := strings.TrimSpace(text) + " " + phoneQuerySuffix
	return whitespace.ReplaceAllString(strings.TrimSpace(query), " ")
}

func (c *Client) buildSearchURL(query string, limit int) (string, error) {
	if limit <= 0 {
		limit = c.config.MaxResults
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search base url: %w", err)
	}
	params := url.Values{}
	params.Add("key", c.config.APIKey)
	params.Add("cx", c.config.EngineID)
	params.Add("q", query)
	params.Add("num", fmt.Sprintf("%d", limit))
	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}

// processResults drops non-HTML documents and repeated links, keeping API order.
func processResults(items []apiItem) []models.SearchResult {
	seen := make(map[string]bool, len(items))
	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		if item.Mime != "" && !strings.Contains(item.Mime, "html") {
			continue
		}
		if item.Link != "" && seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		results = append(results, models.SearchResult{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		})
	}
	return results
}

func (c *Client) logWarn(query string, err error) {
	stdErr := commonerrors.NewWebSearchFailedError(err)
	c.logger.Warn("web search failed, returning empty results", map[string]interface{}{
		"query":     query,
		"errorCode": stdErr.Code,
		"error":     err.Error(),
	})
}
