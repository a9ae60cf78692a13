package ruleextractors

import "strings"

type featureKeywords struct {
	feature  string
	keywords []string
}

var featureTable = []featureKeywords{
	{"camera", []string{"camera", "photo", "photography", "picture", "selfie"}},
	{"gaming", []string{"gaming", "game", "gpu", "graphics"}},
	{"battery", []string{"battery", "charging", "power", "endurance"}},
	{"display", []string{"display", "screen", "resolution", "amoled", "lcd"}},
	{"performance", []string{"performance", "speed", "processor", "cpu", "ram"}},
	{"storage", []string{"storage", "memory", "gb", "tb"}},
	{"connectivity", []string{"5g", "4g", "wifi", "bluetooth", "nfc"}},
	{"design", []string{"design", "look", "appearance", "color", "weight"}},
	{"security", []string{"security", "fingerprint", "face unlock", "biometric"}},
}

// ExtractFeatures returns feature tags in table order. Matching is plain substring, so
// "program" tags performance via "ram".
func ExtractFeatures(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, entry := range featureTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, entry.feature)
				break
			}
		}
	}
	return out
}

// KnownFeatures lists every tag ExtractFeatures can emit.
func KnownFeatures() []string {
	out := make([]string, len(featureTable))
	for i, entry := range featureTable {
		out[i] = entry.feature
	}
	return out
}
