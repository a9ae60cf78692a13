package queryanalyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopping-assistant/internal/assistant/prompts"
	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

type intentReply struct {
	Intent               string           `json:"intent"`
	BudgetRange          *replyPriceRange `json:"budget_range"`
	PreferredBrands      []string         `json:"preferred_brands"`
	FeatureFocus         []string         `json:"feature_focus"`
	Urgency              string           `json:"urgency"`
	NeedsMultipleOptions *bool            `json:"needs_multiple_options"`
}

const intentSchema = `{
  "type": "object",
  "properties": {
    "intent":           {"type": ["string", "null"]},
    "preferred_brands": {"type": ["array", "null"], "items": {"type": "string"}},
    "feature_focus":    {"type": ["array", "null"], "items": {"type": "string"}},
    "urgency":          {"type": ["string", "null"]},
    "needs_multiple_options": {"type": ["boolean", "null"]},
    "budget_range": {
      "type": ["object", "null"],
      "properties": {
        "min": {"type": ["number", "null"], "minimum": 0},
        "max": {"type": ["number", "null"], "minimum": 0}
      }
    }
  }
}`

var intentValidator = validation.MustValidator(intentSchema)

var knownIntents = map[string]bool{
	models.IntentRecommendation: true,
	models.IntentComparison:     true,
	models.IntentInformation:    true,
	models.IntentSpecification:  true,
}

var knownUrgencies = map[string]bool{
	models.UrgencyHigh:   true,
	models.UrgencyMedium: true,
	models.UrgencyLow:    true,
}

// AnalyzeIntent classifies the shopper's goal using the query and the last few turns.
// It never fails; an unusable reply yields models.DefaultUserIntent.
func (a *Analyzer) AnalyzeIntent(ctx context.Context, text string, history []models.ConversationTurn) *models.UserIntent {
	raw, err := a.generator.Generate(ctx, prompts.UserIntent(text, prompts.ConversationSummary(history)))
	if err != nil {
		a.logger.Warn("Intent analysis unavailable, using default intent", map[string]interface{}{"error": err.Error()})
		return models.DefaultUserIntent()
	}

	intent, err := parseIntent(raw)
	if err != nil {
		a.logger.Warn("Intent reply unusable, using default intent", map[string]interface{}{"error": err.Error()})
		return models.DefaultUserIntent()
	}

	a.logger.Debug("User intent analyzed", map[string]interface{}{
		"intent":  intent.Intent,
		"urgency": intent.Urgency,
	})
	return intent
}

// parseIntent validates the reply and fills unknown or missing labels from the default.
func parseIntent(raw string) (*models.UserIntent, error) {
	obj, ok := firstJSONObject(stripFences(raw))
	if !ok {
		return nil, ErrNoJSONObject
	}
	if result := intentValidator.ValidateJSON([]byte(obj)); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReply, result.Error())
	}

	var reply intentReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}

	out := models.DefaultUserIntent()
	if label := strings.ToLower(strings.TrimSpace(reply.Intent)); knownIntents[label] {
		out.Intent = label
	}
	if urgency := strings.ToLower(strings.TrimSpace(reply.Urgency)); knownUrgencies[urgency] {
		out.Urgency = urgency
	}
	if reply.NeedsMultipleOptions != nil {
		out.NeedsMultipleOptions = *reply.NeedsMultipleOptions
	}
	out.PreferredBrands = models.UniqueStrings(reply.PreferredBrands)
	out.FeatureFocus = models.UniqueStrings(reply.FeatureFocus)
	if reply.BudgetRange != nil {
		out.BudgetRange = models.PriceRange{Min: reply.BudgetRange.Min, Max: reply.BudgetRange.Max}.Normalize()
	}
	return out, nil
}
