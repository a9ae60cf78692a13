package prompts

import (
	"fmt"
	"strings"
	"testing"

	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRupees(t *testing.T) {
	tests := []struct {
		price float64
		want  string
	}{
		{8999, "₹8,999"},
		{129999, "₹129,999"},
		{0, "₹0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rupees(tt.price))
	}
}

func TestConversationSummary(t *testing.T) {
	assert.Equal(t, "No previous conversation", ConversationSummary(nil))

	turns := make([]models.ConversationTurn, 0, 5)
	for i := 1; i <= 5; i++ {
		turns = append(turns, models.ConversationTurn{
			UserMessage:       fmt.Sprintf("q%d", i),
			AssistantResponse: strings.Repeat("x", 150),
		})
	}

	summary := ConversationSummary(turns)
	assert.NotContains(t, summary, "User: q2")
	assert.Contains(t, summary, "User: q3")
	assert.Contains(t, summary, "User: q5")
	assert.Contains(t, summary, "AI: "+strings.Repeat("x", 100)+"...")
	assert.NotContains(t, summary, strings.Repeat("x", 101))
}

func TestMatchPreview(t *testing.T) {
	assert.Equal(t, "No phones found in database", MatchPreview(nil))

	var matches []models.CatalogEntry
	for i := 1; i <= 7; i++ {
		matches = append(matches, models.CatalogEntry{Name: fmt.Sprintf("Phone %d", i), Brand: "Acme", Price: 12999})
	}
	preview := MatchPreview(matches)
	assert.Equal(t, 5, strings.Count(preview, "\n")+1)
	assert.Contains(t, preview, "- Phone 1 (Acme) - ₹12,999")
	assert.NotContains(t, preview, "Phone 6")
}

func TestCatalogData(t *testing.T) {
	assert.Equal(t, "No phones found matching the criteria.", CatalogData(nil))

	data := CatalogData([]models.CatalogEntry{{
		ID: 3, Name: "Redmi 12C", Brand: "Xiaomi", Price: 8999, RAM: 4, Storage: 64,
		BatteryCapacity: 5000, Features: []string{"dual sim"},
	}})
	assert.Contains(t, data, "Phone ID: 3")
	assert.Contains(t, data, "Name: Redmi 12C")
	assert.Contains(t, data, "Price: ₹8,999")
	assert.Contains(t, data, "RAM: 4GB")
	assert.Contains(t, data, "Battery: 5000mAh")
}

func TestWebData(t *testing.T) {
	assert.Empty(t, WebData(nil))

	results := []models.SearchResult{
		{Title: "A", Snippet: "a"}, {Title: "B", Snippet: "b"},
		{Title: "C", Snippet: "c"}, {Title: "D", Snippet: "d"},
	}
	out := WebData(results)
	assert.Contains(t, out, "1. A\n   a")
	assert.Contains(t, out, "3. C\n   c")
	assert.NotContains(t, out, "D")
}

func TestPreferences(t *testing.T) {
	assert.Empty(t, Preferences(nil))

	out := Preferences(map[string]interface{}{
		"budget_max":       20000.0,
		"preferred_brands": []interface{}{"Samsung", "Apple"},
		"feature_focus":    []string{"camera"},
	})
	assert.Contains(t, out, "User's budget: Up to ₹20,000")
	assert.Contains(t, out, "Preferred brands: Samsung, Apple")
	assert.Contains(t, out, "Feature focus: camera")
}

func TestPromptMarkers(t *testing.T) {
	extraction := Extraction("show me redmi", []string{"Xiaomi"}, []string{"Redmi 12C"})
	decision := AugmentationDecision("show me redmi", 1, "- Redmi 12C (Xiaomi) - ₹8,999", "No previous conversation")
	enhancement := QueryEnhancement("show me redmi", "Available phones in database: Redmi 12C")
	scope := ScopeCheck("show me redmi")
	response := Response(ResponseInput{Query: "show me redmi", CatalogData: "Name: Redmi 12C"})
	intent := UserIntent("show me redmi", "No previous conversation")

	assert.Contains(t, extraction, "price_range")
	assert.Contains(t, extraction, "Available Models: Redmi 12C")
	assert.Contains(t, decision, LabelDatabaseOnly)
	assert.Contains(t, decision, LabelWebSearch)
	assert.Contains(t, decision, "Database Results Count: 1")
	assert.Contains(t, enhancement, "search query optimizer")
	assert.Contains(t, scope, LabelUnsafe)
	assert.Contains(t, response, "Name: Redmi 12C")

	for _, marker := range []string{LabelDatabaseOnly, LabelWebSearch, LabelUnsafe, "price_range", "search query optimizer"} {
		assert.NotContains(t, response, marker)
	}
	for _, marker := range []string{LabelDatabaseOnly, LabelUnsafe, "search query optimizer"} {
		assert.NotContains(t, extraction, marker)
	}
	assert.Contains(t, intent, "needs_multiple_options")
	assert.Contains(t, intent, "Conversation Context: No previous conversation")
	for _, marker := range []string{LabelDatabaseOnly, LabelUnsafe, "price_range", "search query optimizer"} {
		assert.NotContains(t, intent, marker)
	}
	for _, p := range []string{extraction, decision, enhancement, scope, response} {
		assert.NotContains(t, p, "Analyze the user's intent")
	}
	assert.NotContains(t, decision, "price_range")
	assert.NotContains(t, decision, LabelUnsafe)
}

func TestExtractionCapsModels(t *testing.T) {
	var names []string
	for i := 0; i < 60; i++ {
		names = append(names, fmt.Sprintf("Model-%02d", i))
	}
	prompt := Extraction("q", nil, names)
	assert.Contains(t, prompt, "Model-49")
	assert.NotContains(t, prompt, "Model-50")
}
