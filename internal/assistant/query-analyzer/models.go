package queryanalyzer

import (
	"context"

	"shopping-assistant/internal/common/validation"
	"shopping-assistant/internal/models"
)

// Generator is the slice of the provider dispatcher the analyzer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VocabularyLookup lists the catalog's known brands and models.
type VocabularyLookup interface {
	ListBrands(ctx context.Context) ([]models.BrandVocabulary, error)
	ListModels(ctx context.Context) ([]models.ModelVocabulary, error)
}

type replyPriceRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// generativeReply mirrors the JSON object the extraction prompt asks for. Pointer fields
// distinguish null or absent values from zero.
type generativeReply struct {
	Brands     []string         `json:"brands"`
	Models     []string         `json:"models"`
	PriceRange *replyPriceRange `json:"price_range"`
	Features   []string         `json:"features"`
	Confidence *float64         `json:"confidence"`
}

const replySchema = `{
  "type": "object",
  "properties": {
    "brands":   {"type": ["array", "null"], "items": {"type": "string"}},
    "models":   {"type": ["array", "null"], "items": {"type": "string"}},
    "features": {"type": ["array", "null"], "items": {"type": "string"}},
    "price_range": {
      "type": ["object", "null"],
      "properties": {
        "min": {"type": ["number", "null"], "minimum": 0},
        "max": {"type": ["number", "null"], "minimum": 0}
      }
    },
    "confidence": {"type": ["number", "null"]}
  }
}`

var replyValidator = validation.MustValidator(replySchema)
