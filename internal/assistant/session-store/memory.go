package sessionstore

import (
	"context"
	"hash/fnv"
	"sync"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"

	"github.com/google/uuid"
)

type shard struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// MemoryStore is a sharded in-process store; each shard has its own lock.
type MemoryStore struct {
	config *Config
	shards []*shard
	logger logger.Logger
}

func NewMemoryStore(cfg *Config, log logger.Logger) *MemoryStore {
	cfg = cfg.withDefaults()
	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{sessions: make(map[string]*models.Session)}
	}
	return &MemoryStore{config: cfg, shards: shards, logger: log}
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	sh := s.shardFor(id)

	sh.mu.Lock()
	sh.sessions[id] = models.NewSession(id, s.config.Now())
	sh.mu.Unlock()

	s.logger.Debug("Session created", map[string]interface{}{"session_id": id})
	return id, nil
}

// live returns the session if present and unexpired. Caller holds sh.mu.
func (s *MemoryStore) live(sh *shard, id string) *models.Session {
	sess, ok := sh.sessions[id]
	if !ok {
		return nil
	}
	if sess.IsExpired(s.config.Now(), s.config.TTL) {
		delete(sh.sessions, id)
		metrics.SessionsExpired.WithLabelValues("lazy").Inc()
		s.logger.Info("Session expired", map[string]interface{}{"session_id": id})
		return nil
	}
	return sess
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Session, bool, error) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.live(sh, id)
	if sess == nil {
		return nil, false, nil
	}
	sess.UpdateActivity(s.config.Now())
	return sess.Clone(), true, nil
}

func (s *MemoryStore) Append(ctx context.Context, id string, turn models.ConversationTurn) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.live(sh, id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.AppendTurn(copyTurn(turn), s.config.MaxHistory)
	sess.UpdateActivity(s.config.Now())
	return nil
}

func (s *MemoryStore) SetPreferences(ctx context.Context, id string, partial map[string]interface{}) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := s.live(sh, id)
	if sess == nil {
		return ErrSessionNotFound
	}
	sess.MergePreferences(partial)
	sess.UpdateActivity(s.config.Now())
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	sh := s.shardFor(id)
	sh.mu.Lock()
	delete(sh.sessions, id)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	removed := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		sh.mu.Lock()
		now := s.config.Now()
		for id, sess := range sh.sessions {
			if sess.IsExpired(now, s.config.TTL) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		metrics.SessionsExpired.WithLabelValues("sweep").Add(float64(removed))
	}
	return removed, nil
}

// Len counts stored sessions, expired or not.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}
