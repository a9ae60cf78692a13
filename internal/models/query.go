package models

import "time"

// Query is received once and passed by value.
type Query struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func NewQuery(text string, now time.Time) Query {
	return Query{Text: text, ReceivedAt: now}
}

type DecisionRationale string

const (
	RationaleNoCatalogMatches           DecisionRationale = "no_catalog_matches"
	RationaleClassifierWebSearch        DecisionRationale = "classifier_web_search"
	RationaleClassifierCatalogOnly      DecisionRationale = "classifier_catalog_only"
	RationaleFallbackLowCoverage        DecisionRationale = "fallback_low_coverage"
	RationaleFallbackSufficientCoverage DecisionRationale = "fallback_sufficient_coverage"
)

type Decision struct {
	UseAugmentation bool              `json:"useAugmentation"`
	Rationale       DecisionRationale `json:"rationale"`
}

// Response is what the orchestrator hands back to its caller.
type Response struct {
	ResponseText     string            `json:"response"`
	Recommendations  []CatalogEntry    `json:"recommendations"`
	UsedAugmentation bool              `json:"usedAugmentation"`
	SessionID        string            `json:"sessionId"`
	Intent           *ExtractionResult `json:"intent"`
	UserIntent       *UserIntent       `json:"userIntent"`
}
