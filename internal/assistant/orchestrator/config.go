package orchestrator

import "shopping-assistant/internal/common/config"

const (
	DefaultMaxRecommendations = 5
	DefaultRecentTurns        = 5
	DefaultSearchResults      = 3
	DefaultCatalogLimit       = 20

	// minUsefulWebResults triggers the enhanced follow-up search when fewer hits came back.
	minUsefulWebResults = 2

	performanceMinRAM = 6   // GB
	storageMinStorage = 128 // GB
)

type Config struct {
	MaxRecommendations int
	RecentTurns        int
	SearchResults      int
	CatalogLimit       int
}

func LoadConfig(cfg config.AssistantConfig) *Config {
	c := &Config{
		MaxRecommendations: cfg.MaxRecommendations,
		RecentTurns:        cfg.RecentTurns,
	}
	return c.withDefaults()
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.MaxRecommendations <= 0 {
		out.MaxRecommendations = DefaultMaxRecommendations
	}
	if out.RecentTurns <= 0 {
		out.RecentTurns = DefaultRecentTurns
	}
	if out.SearchResults <= 0 {
		out.SearchResults = DefaultSearchResults
	}
	if out.CatalogLimit <= 0 {
		out.CatalogLimit = DefaultCatalogLimit
	}
	return &out
}
