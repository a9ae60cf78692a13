package models

// Intent labels. IntentUnsafe marks a refused query.
const (
	IntentRecommendation = "recommendation"
	IntentComparison     = "comparison"
	IntentInformation    = "information"
	IntentSpecification  = "specification"
	IntentUnsafe         = "unsafe_query"
)

const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// UserIntent is the shopper's goal and stated preferences for one turn.
type UserIntent struct {
	Intent               string     `json:"intent"`
	BudgetRange          PriceRange `json:"budgetRange"`
	PreferredBrands      []string   `json:"preferredBrands"`
	FeatureFocus         []string   `json:"featureFocus"`
	Urgency              string     `json:"urgency,omitempty"`
	NeedsMultipleOptions bool       `json:"needsMultipleOptions"`
}

// DefaultUserIntent is used whenever intent analysis is unavailable.
func DefaultUserIntent() *UserIntent {
	return &UserIntent{
		Intent:               IntentRecommendation,
		PreferredBrands:      []string{},
		FeatureFocus:         []string{},
		Urgency:              UrgencyMedium,
		NeedsMultipleOptions: true,
	}
}

// Preferences flattens the intent into session preference keys. Empty lists and
// unset budget bounds are left out so they never overwrite stored values.
func (u *UserIntent) Preferences() map[string]interface{} {
	prefs := map[string]interface{}{
		"intent":                 u.Intent,
		"needs_multiple_options": u.NeedsMultipleOptions,
	}
	if u.Urgency != "" {
		prefs["urgency"] = u.Urgency
	}
	if len(u.PreferredBrands) > 0 {
		prefs["preferred_brands"] = append([]string(nil), u.PreferredBrands...)
	}
	if len(u.FeatureFocus) > 0 {
		prefs["feature_focus"] = append([]string(nil), u.FeatureFocus...)
	}
	if u.BudgetRange.Min != nil {
		prefs["budget_min"] = *u.BudgetRange.Min
	}
	if u.BudgetRange.Max != nil {
		prefs["budget_max"] = *u.BudgetRange.Max
	}
	return prefs
}
