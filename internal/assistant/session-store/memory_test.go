package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T, clock *fakeClock) *MemoryStore {
	t.Helper()
	return NewMemoryStore(&Config{TTL: 24 * time.Hour, MaxHistory: 10, Shards: 4, Now: clock.Now}, logger.NewTestLogger(t))
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()

	id, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	sess, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, sess.ID)
	assert.Empty(t, sess.History)

	_, ok, err = store.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_SlidingTTL(t *testing.T) {
	tests := []struct {
		name        string
		idle        time.Duration
		wantPresent bool
	}{
		{"active one hour ago", time.Hour, true},
		{"exactly at ttl", 24 * time.Hour, true},
		{"idle 25 hours", 25 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			store := newMemoryStore(t, clock)
			ctx := context.Background()

			id, err := store.Create(ctx)
			require.NoError(t, err)
			clock.Advance(tt.idle)

			sess, ok, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, ok)
			if tt.wantPresent {
				assert.Equal(t, clock.Now(), sess.LastActivity)
			} else {
				assert.Equal(t, 0, store.Len(), "expired entry is deleted on read")
			}
		})
	}
}

func TestMemoryStore_GetRefreshKeepsSessionAlive(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)

	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Hour)
		_, ok, _ := store.Get(ctx, id)
		require.True(t, ok)
	}
}

func TestMemoryStore_ExpiredIsNeverResurrected(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)

	clock.Advance(25 * time.Hour)
	err := store.Append(ctx, id, models.ConversationTurn{UserMessage: "late"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.SetPreferences(ctx, id, map[string]interface{}{"x": 1}), ErrSessionNotFound)

	_, ok, _ := store.Get(ctx, id)
	assert.False(t, ok)
}

func TestMemoryStore_HistoryBound(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)

	for i := 1; i <= 11; i++ {
		require.NoError(t, store.Append(ctx, id, models.ConversationTurn{UserMessage: fmt.Sprintf("turn-%d", i)}))
	}

	sess, ok, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, sess.History, 10)
	for i, turn := range sess.History {
		assert.Equal(t, fmt.Sprintf("turn-%d", i+2), turn.UserMessage)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)
	ids := []int64{7}
	require.NoError(t, store.Append(ctx, id, models.ConversationTurn{UserMessage: "q", RecommendedItemIDs: ids}))
	ids[0] = 8

	sess, _, _ := store.Get(ctx, id)
	sess.History[0].UserMessage = "mutated"
	sess.Preferences["k"] = "v"

	again, _, _ := store.Get(ctx, id)
	assert.Equal(t, "q", again.History[0].UserMessage)
	assert.Equal(t, []int64{7}, again.History[0].RecommendedItemIDs)
	assert.NotContains(t, again.Preferences, "k")
}

func TestMemoryStore_SetPreferencesMerges(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)

	require.NoError(t, store.SetPreferences(ctx, id, map[string]interface{}{"budget_max": 20000.0, "preferred_brands": []string{"Samsung"}}))
	require.NoError(t, store.SetPreferences(ctx, id, map[string]interface{}{"budget_max": 15000.0}))

	sess, _, _ := store.Get(ctx, id)
	assert.Equal(t, 15000.0, sess.Preferences["budget_max"])
	assert.Equal(t, []string{"Samsung"}, sess.Preferences["preferred_brands"])
}

func TestMemoryStore_SweepMatchesLazyExpiry(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()

	stale1, _ := store.Create(ctx)
	stale2, _ := store.Create(ctx)
	clock.Advance(23 * time.Hour)
	fresh, _ := store.Create(ctx)
	clock.Advance(2 * time.Hour)

	removed, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "sweep is idempotent")

	for _, id := range []string{stale1, stale2} {
		_, ok, _ := store.Get(ctx, id)
		assert.False(t, ok)
	}
	_, ok, _ := store.Get(ctx, fresh)
	assert.True(t, ok)
}

func TestMemoryStore_DeleteRemovesSession(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()
	id, _ := store.Create(ctx)

	require.NoError(t, store.Delete(ctx, id))
	_, ok, _ := store.Get(ctx, id)
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, id))
}

func TestMemoryStore_ConcurrentAppendsSameSession(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(&Config{MaxHistory: 1000, Now: clock.Now}, logger.NewNoOpLogger())
	ctx := context.Background()
	id, _ := store.Create(ctx)

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, id, models.ConversationTurn{UserMessage: fmt.Sprintf("m-%d", n)}))
			_, _, _ = store.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	sess, _, _ := store.Get(ctx, id)
	require.Len(t, sess.History, writers)
	seen := make(map[string]bool, writers)
	for _, turn := range sess.History {
		seen[turn.UserMessage] = true
	}
	assert.Len(t, seen, writers)
}

func TestMemoryStore_ConcurrentSessions(t *testing.T) {
	store := NewMemoryStore(&Config{}, logger.NewNoOpLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := store.Create(ctx)
			if !assert.NoError(t, err) {
				return
			}
			for j := 0; j < 12; j++ {
				assert.NoError(t, store.Append(ctx, id, models.ConversationTurn{UserMessage: "q"}))
			}
			sess, ok, err := store.Get(ctx, id)
			if assert.NoError(t, err) && assert.True(t, ok) {
				assert.Len(t, sess.History, models.MaxHistoryTurns)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}

func TestNewMemoryStore_NilConfigUsesDefaults(t *testing.T) {
	store := NewMemoryStore(nil, logger.NewNoOpLogger())
	assert.Equal(t, models.DefaultSessionTTL, store.config.TTL)
	assert.Equal(t, models.MaxHistoryTurns, store.config.MaxHistory)
	assert.Len(t, store.shards, 32)

	id, err := store.Create(context.Background())
	require.NoError(t, err)
	sess, ok, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, sess.ID)
}

func TestNewMemoryStore_DoesNotMutateCallerConfig(t *testing.T) {
	cfg := &Config{MaxHistory: 3}
	store := NewMemoryStore(cfg, logger.NewNoOpLogger())

	assert.Equal(t, &Config{MaxHistory: 3}, cfg)
	assert.Equal(t, models.DefaultSessionTTL, store.config.TTL)
	assert.Equal(t, 3, store.config.MaxHistory)
	assert.NotSame(t, cfg, store.config)
}
