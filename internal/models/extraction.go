package models

import "strings"

type ExtractionSource string

const (
	SourceRuleBased  ExtractionSource = "rule_based"
	SourceGenerative ExtractionSource = "generative"
	SourceMerged     ExtractionSource = "merged"
)

const (
	RuleBasedConfidence         = 0.5
	DefaultGenerativeConfidence = 0.8
)

type PriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

func (p PriceRange) IsEmpty() bool {
	return p.Min == nil && p.Max == nil
}

// Normalize swaps inverted bounds so Min <= Max holds whenever both are set.
func (p PriceRange) Normalize() PriceRange {
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return PriceRange{Min: p.Max, Max: p.Min}
	}
	return p
}

type ExtractionResult struct {
	Brands     []string         `json:"brands"`
	Models     []string         `json:"models"`
	PriceRange PriceRange       `json:"priceRange"`
	Features   []string         `json:"features"`
	Confidence float64          `json:"confidence"`
	Source     ExtractionSource `json:"source"`
}

func (r *ExtractionResult) HasFeature(feature string) bool {
	for _, f := range r.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// UniqueStrings drops blanks and case-insensitive duplicates, keeping first-seen order.
func UniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func Float64Ptr(v float64) *float64 {
	return &v
}
