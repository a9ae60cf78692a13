package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	brandsCacheKey = "catalog:vocab:brands"
	modelsCacheKey = "catalog:vocab:models"

	DefaultVocabularyTTL = 5 * time.Minute
)

// Cache is satisfied by database.RedisClient.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// CachedVocabulary keeps the vocabulary lists in a shared cache. Cache failures fall
// through to the underlying source.
type CachedVocabulary struct {
	source Vocabulary
	cache  Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedVocabulary(source Vocabulary, cache Cache, ttl time.Duration, log logger.Logger) *CachedVocabulary {
	if ttl <= 0 {
		ttl = DefaultVocabularyTTL
	}
	return &CachedVocabulary{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "vocabulary-cache"}),
	}
}

func (v *CachedVocabulary) ListBrands(ctx context.Context) ([]models.BrandVocabulary, error) {
	var brands []models.BrandVocabulary
	if v.lookup(ctx, brandsCacheKey, &brands) {
		return brands, nil
	}

	brands, err := v.source.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	v.store(ctx, brandsCacheKey, brands)
	return brands, nil
}

func (v *CachedVocabulary) ListModels(ctx context.Context) ([]models.ModelVocabulary, error) {
	var list []models.ModelVocabulary
	if v.lookup(ctx, modelsCacheKey, &list) {
		return list, nil
	}

	list, err := v.source.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	v.store(ctx, modelsCacheKey, list)
	return list, nil
}

func (v *CachedVocabulary) lookup(ctx context.Context, key string, out interface{}) bool {
	raw, err := v.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			v.logger.Warn("Vocabulary cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		v.logger.Warn("Discarding unreadable vocabulary cache entry", map[string]interface{}{"key": key})
		return false
	}
	return true
}

func (v *CachedVocabulary) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, key, string(data), v.ttl); err != nil {
		v.logger.Warn("Vocabulary cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
