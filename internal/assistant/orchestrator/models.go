package orchestrator

import (
	"context"
	"time"

	"shopping-assistant/internal/models"
)

type ScopeGate interface {
	IsInScope(ctx context.Context, text string) bool
}

type Analyzer interface {
	Analyze(ctx context.Context, query models.Query) *models.ExtractionResult
}

// IntentAnalyzer classifies the shopper's goal; it never fails.
type IntentAnalyzer interface {
	AnalyzeIntent(ctx context.Context, text string, history []models.ConversationTurn) *models.UserIntent
}

type CatalogQuery interface {
	FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error)
}

type Decider interface {
	ShouldAugment(ctx context.Context, query models.Query, matchCount int, matches []models.CatalogEntry, session *models.Session) models.Decision
	EnhanceQuery(ctx context.Context, query string, matches []models.CatalogEntry) string
}

// WebSearcher never fails; errors degrade to an empty result set.
type WebSearcher interface {
	Search(ctx context.Context, text string, limit int) []models.SearchResult
	SearchComparison(ctx context.Context, first, second string) []models.SearchResult
	SearchLatest(ctx context.Context, category string) []models.SearchResult
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type QueryRecorder interface {
	RecordQuery(ctx context.Context, duration time.Duration, outcome string, augmented bool)
}

const (
	OutcomeAnswered  = "answered"
	OutcomeRefused   = "refused"
	OutcomeFallback  = "fallback"
	OutcomeAbandoned = "abandoned"
)

// Preference keys merged into the session after every answered turn.
const (
	PrefPreferredBrands = "preferred_brands"
	PrefBudgetMin       = "budget_min"
	PrefBudgetMax       = "budget_max"
	PrefFeatureFocus    = "feature_focus"
)
