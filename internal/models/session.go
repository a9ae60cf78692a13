package models

import "time"

const (
	DefaultSessionTTL = 24 * time.Hour
	MaxHistoryTurns   = 10
)

// Session is the per-conversation state owned by a session store.
type Session struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"createdAt"`
	LastActivity time.Time              `json:"lastActivity"`
	History      []ConversationTurn     `json:"history"`
	Preferences  map[string]interface{} `json:"preferences"`
}

// ConversationTurn is appended once and never edited.
type ConversationTurn struct {
	Timestamp          time.Time `json:"timestamp"`
	UserMessage        string    `json:"userMessage"`
	AssistantResponse  string    `json:"assistantResponse"`
	UsedAugmentation   bool      `json:"usedAugmentation"`
	RecommendedItemIDs []int64   `json:"recommendedItemIds"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		LastActivity: now,
		History:      []ConversationTurn{},
		Preferences:  map[string]interface{}{},
	}
}

// IsExpired reports whether more than ttl has passed since the last activity.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

func (s *Session) UpdateActivity(now time.Time) {
	s.LastActivity = now
}

// AppendTurn adds turn and evicts from the front so at most maxHistory turns remain.
func (s *Session) AppendTurn(turn ConversationTurn, maxHistory int) {
	if maxHistory <= 0 {
		maxHistory = MaxHistoryTurns
	}
	s.History = append(s.History, turn)
	if overflow := len(s.History) - maxHistory; overflow > 0 {
		trimmed := make([]ConversationTurn, maxHistory)
		copy(trimmed, s.History[overflow:])
		s.History = trimmed
	}
}

// MergePreferences overwrites keys present in partial and keeps the rest.
func (s *Session) MergePreferences(partial map[string]interface{}) {
	if s.Preferences == nil {
		s.Preferences = make(map[string]interface{}, len(partial))
	}
	for k, v := range partial {
		s.Preferences[k] = v
	}
}

// RecentTurns returns up to n of the newest turns, oldest first.
func (s *Session) RecentTurns(n int) []ConversationTurn {
	if s == nil || n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	return s.History[len(s.History)-n:]
}

// Clone returns a deep copy so callers never alias store-owned state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.History = make([]ConversationTurn, len(s.History))
	for i, turn := range s.History {
		turn.RecommendedItemIDs = append([]int64(nil), turn.RecommendedItemIDs...)
		out.History[i] = turn
	}
	out.Preferences = make(map[string]interface{}, len(s.Preferences))
	for k, v := range s.Preferences {
		out.Preferences[k] = cloneValue(v)
	}
	return &out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []interface{}:
		return append([]interface{}(nil), val...)
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	default:
		return v
	}
}
