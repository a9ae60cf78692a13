// Package augmentationdecision decides whether catalog matches are enough to answer a
// query or whether a web search should supplement them.
package augmentationdecision

import (
	"context"
	"fmt"
	"strings"

	"shopping-assistant/internal/assistant/prompts"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

// CoverageThreshold is the match count at which the catalog alone is considered enough.
// Both the classifier prompt and the fallback rule use it.
const CoverageThreshold = 2

const enhancementContextNames = 3

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Engine struct {
	generator Generator
	logger    logger.Logger
}

func New(generator Generator, log logger.Logger) *Engine {
	return &Engine{
		generator: generator,
		logger: log.With(map[string]interface{}{
			"component": "augmentation-decision",
		}),
	}
}

// ShouldAugment asks the classifier unless there are no matches at all. A classifier
// failure or an unrecognized label falls back to FallbackDecision.
func (e *Engine) ShouldAugment(ctx context.Context, query models.Query, matchCount int, matches []models.CatalogEntry, session *models.Session) models.Decision {
	if matchCount <= 0 {
		return e.record(models.Decision{UseAugmentation: true, Rationale: models.RationaleNoCatalogMatches})
	}

	var history []models.ConversationTurn
	if session != nil {
		history = session.History
	}
	prompt := prompts.AugmentationDecision(query.Text, matchCount,
		prompts.MatchPreview(matches), prompts.ConversationSummary(history))

	reply, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("Augmentation classifier unavailable, using fallback rule", map[string]interface{}{
			"error":      err.Error(),
			"matchCount": matchCount,
		})
		return e.record(FallbackDecision(matchCount))
	}

	switch parseLabel(reply) {
	case prompts.LabelWebSearch:
		return e.record(models.Decision{UseAugmentation: true, Rationale: models.RationaleClassifierWebSearch})
	case prompts.LabelDatabaseOnly:
		return e.record(models.Decision{UseAugmentation: false, Rationale: models.RationaleClassifierCatalogOnly})
	default:
		e.logger.Warn("Unrecognized augmentation label, using fallback rule", map[string]interface{}{
			"reply":      truncate(reply, 80),
			"matchCount": matchCount,
		})
		return e.record(FallbackDecision(matchCount))
	}
}

// FallbackDecision is deterministic and needs no network: augment below CoverageThreshold.
func FallbackDecision(matchCount int) models.Decision {
	if matchCount < CoverageThreshold {
		return models.Decision{UseAugmentation: true, Rationale: models.RationaleFallbackLowCoverage}
	}
	return models.Decision{UseAugmentation: false, Rationale: models.RationaleFallbackSufficientCoverage}
}

// EnhanceQuery rewrites query for a follow-up search. It returns query unchanged when the
// generator fails or replies with nothing.
func (e *Engine) EnhanceQuery(ctx context.Context, query string, matches []models.CatalogEntry) string {
	catalogContext := ""
	if len(matches) > 0 {
		n := len(matches)
		if n > enhancementContextNames {
			n = enhancementContextNames
		}
		names := make([]string, 0, n)
		for _, m := range matches[:n] {
			names = append(names, m.Name)
		}
		catalogContext = fmt.Sprintf("Available phones in database: %s", strings.Join(names, ", "))
	}

	reply, err := e.generator.Generate(ctx, prompts.QueryEnhancement(query, catalogContext))
	if err != nil {
		e.logger.Warn("Query enhancement failed", map[string]interface{}{"error": err.Error()})
		return query
	}

	enhanced := strings.Trim(strings.TrimSpace(reply), `"'`)
	if enhanced == "" {
		return query
	}
	return enhanced
}

func (e *Engine) record(d models.Decision) models.Decision {
	metrics.AugmentationDecisions.WithLabelValues(string(d.Rationale)).Inc()
	e.logger.Debug("Augmentation decided", map[string]interface{}{
		"useAugmentation": d.UseAugmentation,
		"rationale":       d.Rationale,
	})
	return d
}

// parseLabel accepts a bare label, optionally quoted or punctuated, or a reply that
// contains exactly one of the two labels.
func parseLabel(reply string) string {
	normalized := strings.ToUpper(strings.Trim(strings.TrimSpace(reply), "\"'`.:*"))
	switch normalized {
	case prompts.LabelWebSearch, prompts.LabelDatabaseOnly:
		return normalized
	}

	hasWeb := strings.Contains(normalized, prompts.LabelWebSearch)
	hasCatalog := strings.Contains(normalized, prompts.LabelDatabaseOnly)
	switch {
	case hasWeb && !hasCatalog:
		return prompts.LabelWebSearch
	case hasCatalog && !hasWeb:
		return prompts.LabelDatabaseOnly
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
