package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 10

// RedisStore keeps one JSON document per session. The key TTL is refreshed on every
// touch; the activity check against the configured clock is what decides expiry.
type RedisStore struct {
	client *redis.Client
	config *Config
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, cfg *Config, log logger.Logger) *RedisStore {
	return &RedisStore{client: client, config: cfg.withDefaults(), logger: log}
}

func (s *RedisStore) key(id string) string {
	return s.config.KeyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	data, err := json.Marshal(models.NewSession(id, s.config.Now()))
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, s.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	sess, err := s.update(ctx, id, func(*models.Session) {})
	if errors.Is(err, ErrSessionNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

func (s *RedisStore) Append(ctx context.Context, id string, turn models.ConversationTurn) error {
	_, err := s.update(ctx, id, func(sess *models.Session) {
		sess.AppendTurn(copyTurn(turn), s.config.MaxHistory)
	})
	return err
}

func (s *RedisStore) SetPreferences(ctx context.Context, id string, partial map[string]interface{}) error {
	_, err := s.update(ctx, id, func(sess *models.Session) {
		sess.MergePreferences(partial)
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// update runs mutate inside a WATCH transaction on the session key, so concurrent writers
// to one session retry instead of overwriting each other.
func (s *RedisStore) update(ctx context.Context, id string, mutate func(*models.Session)) (*models.Session, error) {
	key := s.key(id)

	for i := 0; i < maxTxRetries; i++ {
		var result *models.Session
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			sess, err := s.load(ctx, tx, key)
			if err != nil {
				return err
			}

			now := s.config.Now()
			if sess.IsExpired(now, s.config.TTL) {
				if err := tx.Del(ctx, key).Err(); err != nil {
					return err
				}
				metrics.SessionsExpired.WithLabelValues("lazy").Inc()
				return ErrSessionNotFound
			}

			mutate(sess)
			sess.UpdateActivity(now)
			data, err := json.Marshal(sess)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.config.TTL)
				return nil
			})
			result = sess
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("session %s: transaction retries exhausted", id)
}

func (s *RedisStore) load(ctx context.Context, c redis.Cmdable, key string) (*models.Session, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, s.config.KeyPrefix+"*", 100).Iterator()
	now := s.config.Now()
	for iter.Next(ctx) {
		key := iter.Val()
		sess, err := s.load(ctx, s.client, key)
		if errors.Is(err, ErrSessionNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("Skipping unreadable session during sweep", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if sess.IsExpired(now, s.config.TTL) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return removed, fmt.Errorf("delete expired session: %w", err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions: %w", err)
	}
	if removed > 0 {
		metrics.SessionsExpired.WithLabelValues("sweep").Add(float64(removed))
	}
	return removed, nil
}
