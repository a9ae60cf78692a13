package catalog

import "shopping-assistant/internal/common/config"

func configFor(backend string) config.CatalogConfig {
	return config.CatalogConfig{
		Backend:    backend,
		Index:      "phones",
		MaxResults: 20,
	}
}
