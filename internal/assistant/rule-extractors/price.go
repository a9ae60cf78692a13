// Package ruleextractors holds the deterministic parsers used when the generative
// extractor is unavailable or silent on a field.
package ruleextractors

import (
	"regexp"
	"strconv"
	"strings"

	"shopping-assistant/internal/models"
)

type boundKind int

const (
	boundMax boundKind = iota
	boundMin
)

type pricePattern struct {
	re         *regexp.Regexp
	multiplier float64
	bound      boundKind
}

// Order matters: the first matching pattern sets the only bound.
var pricePatterns = buildPricePatterns()

func buildPricePatterns() []pricePattern {
	keywords := []struct {
		word  string
		bound boundKind
	}{
		{"under", boundMax},
		{"below", boundMax},
		{"above", boundMin},
		{"from", boundMin},
		{"upto", boundMax},
	}

	const amount = `₹?\s*(\d+(?:,\d+)*)`
	patterns := make([]pricePattern, 0, len(keywords)*2)
	for _, kw := range keywords {
		patterns = append(patterns,
			pricePattern{re: regexp.MustCompile(kw.word + `\s*` + amount + `\s*k`), multiplier: 1000, bound: kw.bound},
			pricePattern{re: regexp.MustCompile(kw.word + `\s*` + amount), multiplier: 1, bound: kw.bound},
		)
	}
	return patterns
}

// ExtractPriceRange sets at most one bound. "between 10k and 20k" style ranges are not parsed.
func ExtractPriceRange(text string) models.PriceRange {
	lower := strings.ToLower(text)
	for _, p := range pricePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		value *= p.multiplier
		if p.bound == boundMax {
			return models.PriceRange{Max: &value}
		}
		return models.PriceRange{Min: &value}
	}
	return models.PriceRange{}
}
