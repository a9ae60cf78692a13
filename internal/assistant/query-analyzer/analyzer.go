// Package queryanalyzer turns a shopping query into an ExtractionResult by combining
// rule-based extraction with a generative extraction call.
package queryanalyzer

import (
	"context"

	"shopping-assistant/internal/assistant/prompts"
	ruleextractors "shopping-assistant/internal/assistant/rule-extractors"
	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/metrics"
	"shopping-assistant/internal/models"
)

type Analyzer struct {
	generator  Generator
	vocabulary VocabularyLookup
	logger     logger.Logger
}

func New(generator Generator, vocabulary VocabularyLookup, log logger.Logger) *Analyzer {
	return &Analyzer{
		generator:  generator,
		vocabulary: vocabulary,
		logger: log.With(map[string]interface{}{
			"component": "query-analyzer",
		}),
	}
}

// Analyze never fails. Any problem with the generative path yields the rule-based result.
func (a *Analyzer) Analyze(ctx context.Context, query models.Query) *models.ExtractionResult {
	brands, phoneModels := a.loadVocabulary(ctx)
	rule := RuleBased(query.Text, brands, phoneModels)

	prompt := prompts.Extraction(query.Text, brandNames(brands), modelNames(phoneModels))
	raw, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return a.fallback(rule, commonerrors.NewAnalysisFallbackError(err.Error()))
	}

	reply, err := parseReply(raw)
	if err != nil {
		return a.fallback(rule, commonerrors.NewAnalysisFallbackError(err.Error()))
	}

	merged := merge(rule, reply)
	metrics.ExtractionResults.WithLabelValues(string(merged.Source)).Inc()
	a.logger.Debug("Query analyzed", map[string]interface{}{
		"brands":     merged.Brands,
		"models":     merged.Models,
		"features":   merged.Features,
		"confidence": merged.Confidence,
	})
	return merged
}

// RuleBased extracts everything without a generator.
func RuleBased(text string, brands []models.BrandVocabulary, phoneModels []models.ModelVocabulary) *models.ExtractionResult {
	return &models.ExtractionResult{
		Brands:     ruleextractors.FuzzyBrandMatch(text, brands),
		Models:     ruleextractors.FuzzyModelMatch(text, phoneModels),
		PriceRange: ruleextractors.ExtractPriceRange(text),
		Features:   ruleextractors.ExtractFeatures(text),
		Confidence: models.RuleBasedConfidence,
		Source:     models.SourceRuleBased,
	}
}

// merge prefers non-empty generative lists and resolves each price bound on its own,
// keeping the rule bound whenever the generative one is null.
func merge(rule *models.ExtractionResult, reply *generativeReply) *models.ExtractionResult {
	out := &models.ExtractionResult{
		Brands:     pickList(reply.Brands, rule.Brands),
		Models:     pickList(reply.Models, rule.Models),
		Features:   pickList(reply.Features, rule.Features),
		PriceRange: rule.PriceRange,
		Confidence: models.DefaultGenerativeConfidence,
		Source:     models.SourceMerged,
	}

	if reply.PriceRange != nil {
		if reply.PriceRange.Min != nil {
			out.PriceRange.Min = models.Float64Ptr(*reply.PriceRange.Min)
		}
		if reply.PriceRange.Max != nil {
			out.PriceRange.Max = models.Float64Ptr(*reply.PriceRange.Max)
		}
	}
	out.PriceRange = out.PriceRange.Normalize()

	if c := reply.Confidence; c != nil && *c >= 0 && *c <= 1 {
		out.Confidence = *c
	}
	return out
}

func (a *Analyzer) fallback(rule *models.ExtractionResult, cause *commonerrors.StandardError) *models.ExtractionResult {
	metrics.ExtractionResults.WithLabelValues(string(rule.Source)).Inc()
	a.logger.Warn("Generative extraction unusable, using rule-based result", map[string]interface{}{
		"code":   cause.Code,
		"reason": cause.Details,
	})
	return rule
}

// loadVocabulary degrades to empty lists when the lookup fails.
func (a *Analyzer) loadVocabulary(ctx context.Context) ([]models.BrandVocabulary, []models.ModelVocabulary) {
	if a.vocabulary == nil {
		return nil, nil
	}
	brands, err := a.vocabulary.ListBrands(ctx)
	if err != nil {
		a.logger.Warn("Brand vocabulary unavailable", map[string]interface{}{"error": err.Error()})
		brands = nil
	}
	phoneModels, err := a.vocabulary.ListModels(ctx)
	if err != nil {
		a.logger.Warn("Model vocabulary unavailable", map[string]interface{}{"error": err.Error()})
		phoneModels = nil
	}
	return brands, phoneModels
}

func pickList(generative, rule []string) []string {
	if g := models.UniqueStrings(generative); len(g) > 0 {
		return g
	}
	return append([]string{}, rule...)
}

func brandNames(brands []models.BrandVocabulary) []string {
	out := make([]string, 0, len(brands))
	for _, b := range brands {
		out = append(out, b.Name)
	}
	return out
}

func modelNames(phoneModels []models.ModelVocabulary) []string {
	out := make([]string, 0, len(phoneModels))
	for _, m := range phoneModels {
		out = append(out, m.Name)
	}
	return out
}
