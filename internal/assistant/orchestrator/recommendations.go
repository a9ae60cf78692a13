package orchestrator

import (
	"strings"

	"shopping-assistant/internal/models"
)

// FilterMentioned keeps the candidates whose names appear in reply. When none do, every
// candidate is returned.
func FilterMentioned(reply string, candidates []models.CatalogEntry) []models.CatalogEntry {
	text := strings.ToLower(reply)
	collapsed := strings.Join(strings.Fields(text), " ")

	out := make([]models.CatalogEntry, 0, len(candidates))
	for _, e := range candidates {
		if nameMentioned(text, collapsed, e.Name) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return append(out, candidates...)
	}
	return out
}

func nameMentioned(text, collapsedText, name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return false
	}
	if strings.Contains(text, lower) {
		return true
	}

	tokens := strings.Fields(lower)
	single := strings.Join(tokens, " ")
	variants := []string{
		single,
		strings.Join(tokens, ""),
		strings.Join(tokens, "-"),
		strings.Join(tokens, "_"),
	}
	for _, v := range variants {
		if strings.Contains(text, v) || strings.Contains(collapsedText, v) {
			return true
		}
	}

	if len(tokens) >= 3 {
		return strings.Contains(collapsedText, strings.Join(tokens[:3], " "))
	}
	return false
}
