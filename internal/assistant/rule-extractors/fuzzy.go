package ruleextractors

import (
	"strings"

	"shopping-assistant/internal/models"
)

// FuzzyBrandMatch returns canonical brand names whose name or any alias is a
// case-insensitive substring of text. No edit distance is involved.
func FuzzyBrandMatch(text string, brands []models.BrandVocabulary) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, b := range brands {
		if containsAny(lower, b.Name, b.Aliases) {
			out = append(out, b.Name)
		}
	}
	return models.UniqueStrings(out)
}

// FuzzyModelMatch is FuzzyBrandMatch for model names and their search terms.
func FuzzyModelMatch(text string, phoneModels []models.ModelVocabulary) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, m := range phoneModels {
		if containsAny(lower, m.Name, m.SearchTerms) {
			out = append(out, m.Name)
		}
	}
	return models.UniqueStrings(out)
}

func containsAny(lowerText, name string, synonyms []string) bool {
	if name = strings.ToLower(strings.TrimSpace(name)); name != "" && strings.Contains(lowerText, name) {
		return true
	}
	for _, s := range synonyms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.Contains(lowerText, s) {
			return true
		}
	}
	return false
}
