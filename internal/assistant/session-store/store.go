// Package sessionstore keeps per-conversation state with a sliding inactivity TTL.
package sessionstore

import (
	"context"
	"errors"

	"shopping-assistant/internal/models"
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Store is safe for concurrent use. An expired session is deleted the first time it is
// touched and reported as absent; it is never resurrected.
type Store interface {
	Create(ctx context.Context) (string, error)
	// Get returns a copy of the session and refreshes its last activity.
	Get(ctx context.Context, id string) (*models.Session, bool, error)
	Append(ctx context.Context, id string, turn models.ConversationTurn) error
	SetPreferences(ctx context.Context, id string, partial map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	// SweepExpired removes every expired session and returns how many it removed.
	SweepExpired(ctx context.Context) (int, error)
}

func copyTurn(turn models.ConversationTurn) models.ConversationTurn {
	turn.RecommendedItemIDs = append([]int64(nil), turn.RecommendedItemIDs...)
	return turn
}
