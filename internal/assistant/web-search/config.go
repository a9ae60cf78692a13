package websearch

import (
	"time"

	"shopping-assistant/internal/common/config"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/customsearch/v1"
	DefaultMaxResults = 3
	// maxPageSize is the largest num the search API accepts.
	maxPageSize = 10
)

type Config struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	EngineID   string
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig(cfg config.WebSearchConfig) *Config {
	c := &Config{
		Enabled:    cfg.Enabled,
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		EngineID:   cfg.EngineID,
		Timeout:    config.GetDuration(cfg.Timeout),
		MaxResults: cfg.MaxResults,
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	return c
}
