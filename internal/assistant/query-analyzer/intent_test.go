package queryanalyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeIntent_ParsesReply(t *testing.T) {
	var prompt string
	gen := generatorFunc(func(ctx context.Context, p string) (string, error) {
		prompt = p
		return "```json\n" + `{"intent": "Comparison", "budget_range": {"min": null, "max": 30000},
			"preferred_brands": ["Samsung", "samsung"], "feature_focus": ["camera"],
			"urgency": "high", "needs_multiple_options": false}` + "\n```", nil
	})
	a := New(gen, nil, logger.NewTestLogger(t))

	history := []models.ConversationTurn{{Timestamp: time.Now(), UserMessage: "phones with good cameras", AssistantResponse: "Try the Galaxy A15"}}
	got := a.AnalyzeIntent(context.Background(), "galaxy a15 vs redmi 12c", history)

	assert.Equal(t, models.IntentComparison, got.Intent)
	assert.Nil(t, got.BudgetRange.Min)
	require.NotNil(t, got.BudgetRange.Max)
	assert.Equal(t, 30000.0, *got.BudgetRange.Max)
	assert.Equal(t, []string{"Samsung"}, got.PreferredBrands)
	assert.Equal(t, []string{"camera"}, got.FeatureFocus)
	assert.Equal(t, models.UrgencyHigh, got.Urgency)
	assert.False(t, got.NeedsMultipleOptions)

	assert.Contains(t, prompt, "needs_multiple_options")
	assert.Contains(t, prompt, "Analyze the user's intent")
	assert.Contains(t, prompt, "User: phones with good cameras")
}

func TestAnalyzeIntent_UnknownLabelsKeepDefaults(t *testing.T) {
	a := New(replyWith(`{"intent": "shopping spree", "urgency": "asap"}`), nil, logger.NewNoOpLogger())

	got := a.AnalyzeIntent(context.Background(), "phones", nil)
	assert.Equal(t, models.IntentRecommendation, got.Intent)
	assert.Equal(t, models.UrgencyMedium, got.Urgency)
	assert.True(t, got.NeedsMultipleOptions)
	assert.Empty(t, got.PreferredBrands)
}

func TestAnalyzeIntent_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		gen  generatorFunc
	}{
		{"dispatcher failure", func(context.Context, string) (string, error) { return "", errors.New("PROVIDER_EXHAUSTED") }},
		{"no json", replyWith("the user wants a phone")},
		{"wrong types", replyWith(`{"preferred_brands": "Samsung", "needs_multiple_options": "yes"}`)},
		{"negative budget", replyWith(`{"budget_range": {"min": -5, "max": null}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(tt.gen, nil, logger.NewTestLogger(t))
			assert.Equal(t, models.DefaultUserIntent(), a.AnalyzeIntent(context.Background(), "phones", nil))
		})
	}
}

func TestUserIntentPreferences(t *testing.T) {
	intent := models.DefaultUserIntent()
	assert.Equal(t, map[string]interface{}{
		"intent":                 models.IntentRecommendation,
		"needs_multiple_options": true,
		"urgency":                models.UrgencyMedium,
	}, intent.Preferences())

	intent.PreferredBrands = []string{"Apple"}
	intent.BudgetRange.Max = models.Float64Ptr(80000)
	prefs := intent.Preferences()
	assert.Equal(t, []string{"Apple"}, prefs["preferred_brands"])
	assert.Equal(t, 80000.0, prefs["budget_max"])
	assert.NotContains(t, prefs, "budget_min")
}
