package prompts

import (
	"fmt"
	"sort"
	"strings"

	"shopping-assistant/internal/models"

	"github.com/dustin/go-humanize"
)

const (
	// MaxPromptModels caps the model names listed in the extraction prompt.
	MaxPromptModels = 50
	// MaxPreviewMatches caps the catalog rows shown to the augmentation classifier.
	MaxPreviewMatches = 5
	// MaxWebResults caps the web hits quoted in the response prompt.
	MaxWebResults = 3

	summaryTurns       = 3
	summaryReplyChars  = 100
	responseReplyChars = 150
)

// Rupees renders a price with thousands grouping, e.g. ₹12,999.
func Rupees(price float64) string {
	return "₹" + humanize.Commaf(price)
}

// ConversationSummary renders the last three turns for the augmentation classifier.
func ConversationSummary(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return "No previous conversation"
	}
	if len(turns) > summaryTurns {
		turns = turns[len(turns)-summaryTurns:]
	}
	parts := make([]string, 0, len(turns)*2)
	for _, t := range turns {
		parts = append(parts, fmt.Sprintf("User: %s", t.UserMessage))
		parts = append(parts, fmt.Sprintf("AI: %s...", truncate(t.AssistantResponse, summaryReplyChars)))
	}
	return strings.Join(parts, "\n")
}

// MatchPreview lists up to five matches as "- name (brand) - ₹price".
func MatchPreview(matches []models.CatalogEntry) string {
	if len(matches) == 0 {
		return "No phones found in database"
	}
	if len(matches) > MaxPreviewMatches {
		matches = matches[:MaxPreviewMatches]
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("- %s (%s) - %s", m.Name, m.Brand, Rupees(m.Price)))
	}
	return strings.Join(parts, "\n")
}

// CatalogData renders every entry with its full specification block.
func CatalogData(entries []models.CatalogEntry) string {
	if len(entries) == 0 {
		return "No phones found matching the criteria."
	}

	var b strings.Builder
	b.WriteString("Available mobile phones:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\nPhone ID: %d\n", e.ID)
		fmt.Fprintf(&b, "Name: %s\n", e.Name)
		fmt.Fprintf(&b, "Brand: %s\n", e.Brand)
		fmt.Fprintf(&b, "Price: %s\n", Rupees(e.Price))
		fmt.Fprintf(&b, "Display: %g\" %s\n", e.DisplaySize, e.DisplayResolution)
		fmt.Fprintf(&b, "Processor: %s\n", e.Processor)
		fmt.Fprintf(&b, "RAM: %dGB\n", e.RAM)
		fmt.Fprintf(&b, "Storage: %dGB\n", e.Storage)
		fmt.Fprintf(&b, "Camera: %s (Main), %s (Front)\n", e.CameraMain, e.CameraFront)
		fmt.Fprintf(&b, "Battery: %dmAh\n", e.BatteryCapacity)
		fmt.Fprintf(&b, "Charging: %s\n", e.ChargingSpeed)
		fmt.Fprintf(&b, "OS: %s\n", e.OS)
		fmt.Fprintf(&b, "Weight: %gg\n", e.Weight)
		if len(e.Colors) > 0 {
			fmt.Fprintf(&b, "Colors: %s\n", strings.Join(e.Colors, ", "))
		}
		fmt.Fprintf(&b, "Features: %s\n", strings.Join(e.Features, ", "))
		fmt.Fprintf(&b, "Description: %s\n", e.Description)
	}
	return b.String()
}

// WebData quotes the first three hits as "title\n   snippet". Empty input renders nothing.
func WebData(results []models.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) > MaxWebResults {
		results = results[:MaxWebResults]
	}
	var b strings.Builder
	b.WriteString("\nAdditional Information from Latest Sources:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n\n", i+1, r.Title, r.Snippet)
	}
	return b.String()
}

// History renders recent turns for the response prompt.
func History(turns []models.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent conversation context:\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "User: %s\n", t.UserMessage)
		fmt.Fprintf(&b, "AI: %s...\n\n", truncate(t.AssistantResponse, responseReplyChars))
	}
	return b.String()
}

// Preferences renders the stored session preferences. Unknown keys are listed sorted.
func Preferences(prefs map[string]interface{}) string {
	if len(prefs) == 0 {
		return ""
	}

	var lines []string
	if v, ok := toFloat(prefs["budget_max"]); ok {
		lines = append(lines, fmt.Sprintf("User's budget: Up to %s", Rupees(v)))
	}
	if v, ok := toFloat(prefs["budget_min"]); ok {
		lines = append(lines, fmt.Sprintf("User's minimum budget: %s", Rupees(v)))
	}
	if brands := toStrings(prefs["preferred_brands"]); len(brands) > 0 {
		lines = append(lines, fmt.Sprintf("Preferred brands: %s", strings.Join(brands, ", ")))
	}
	if features := toStrings(prefs["feature_focus"]); len(features) > 0 {
		lines = append(lines, fmt.Sprintf("Feature focus: %s", strings.Join(features, ", ")))
	}

	var other []string
	for k := range prefs {
		switch k {
		case "budget_max", "budget_min", "preferred_brands", "feature_focus":
		default:
			other = append(other, k)
		}
	}
	sort.Strings(other)
	for _, k := range other {
		lines = append(lines, fmt.Sprintf("%s: %v", k, prefs[k]))
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toStrings accepts both []string and the []interface{} a JSON round trip produces.
func toStrings(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
