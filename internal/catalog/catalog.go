// Package catalog finds phones matching extracted filters and lists the brand and model
// vocabulary the query analyzer matches against.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/models"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
	ErrEntryNotFound        = errors.New("ENTRY_NOT_FOUND")
)

// DefaultLimit is the most entries one lookup returns.
const DefaultLimit = 20

type Query interface {
	FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error)
}

// Lookup fetches one entry; a missing id yields ErrEntryNotFound.
type Lookup interface {
	FindByID(ctx context.Context, id int64) (*models.CatalogEntry, error)
}

// Catalog is implemented by both backends.
type Catalog interface {
	Query
	Lookup
}

type Vocabulary interface {
	ListBrands(ctx context.Context) ([]models.BrandVocabulary, error)
	ListModels(ctx context.Context) ([]models.ModelVocabulary, error)
}

type Config struct {
	Backend    string
	Index      string
	MaxResults int
}

func LoadConfig(cfg config.CatalogConfig) *Config {
	c := &Config{
		Backend:    cfg.Backend,
		Index:      cfg.Index,
		MaxResults: cfg.MaxResults,
	}
	if c.Index == "" {
		c.Index = "mobile_phones"
	}
	if c.MaxResults <= 0 || c.MaxResults > DefaultLimit {
		c.MaxResults = DefaultLimit
	}
	return c
}

func (c *Config) limit(requested int) int {
	if requested <= 0 || requested > c.MaxResults {
		return c.MaxResults
	}
	return requested
}

// parseList reads a text column holding either a JSON array or a comma separated list.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out
		}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
