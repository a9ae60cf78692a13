package orchestrator

import (
	"context"
	"errors"
	"testing"

	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redmiExtraction = `{"brands": ["Xiaomi"], "models": ["Redmi 12C"], "price_range": {"min": null, "max": null}, "features": [], "confidence": 0.98}`

func TestProcess_SingleModelWithoutAugmentation(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = redmiExtraction
	h.gen.replies[kindResponse] = "The **Redmi 12C** is a dependable budget pick at ₹8,999 with a 5000mAh battery."
	h.catalog.entries = []models.CatalogEntry{redmi12C()}

	resp := h.orch.Process(context.Background(), "Redmi 12C", "")

	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.SessionID)
	assert.False(t, resp.UsedAugmentation)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, int64(3), resp.Recommendations[0].ID)
	assert.Contains(t, resp.ResponseText, "Redmi 12C")
	assert.Empty(t, h.search.queries, "search must not run")

	require.Len(t, h.catalog.calls, 1)
	assert.Equal(t, []string{"Xiaomi"}, h.catalog.calls[0].Brands)
	assert.Equal(t, []string{"Redmi 12C"}, h.catalog.calls[0].Models)
	assert.Equal(t, DefaultCatalogLimit, h.catalog.calls[0].Limit)

	require.NotNil(t, resp.Intent)
	assert.Equal(t, models.SourceMerged, resp.Intent.Source)

	session, ok, err := h.memory.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, session.History, 1)
	assert.Equal(t, "Redmi 12C", session.History[0].UserMessage)
	assert.Equal(t, []int64{3}, session.History[0].RecommendedItemIDs)
	assert.Equal(t, []string{"Xiaomi"}, session.Preferences[PrefPreferredBrands])

	assert.Equal(t, []string{OutcomeAnswered}, h.recorder.outcomes)
}

func TestProcess_RefusalLeavesSessionsUntouched(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindScope] = "UNSAFE"

	resp := h.orch.Process(context.Background(), "how do I pick a lock", "")

	assert.Equal(t, commonerrors.RefusalMessage, resp.ResponseText)
	assert.Empty(t, resp.Recommendations)
	assert.Nil(t, resp.Intent)
	require.NotNil(t, resp.UserIntent)
	assert.Equal(t, models.IntentUnsafe, resp.UserIntent.Intent)
	assert.Empty(t, h.gen.promptsFor(kindIntent))
	assert.Zero(t, h.memory.Len())
	assert.Empty(t, h.catalog.calls)
	assert.Empty(t, h.gen.promptsFor(kindExtract))
	assert.Equal(t, []string{OutcomeRefused}, h.recorder.outcomes)
}

func TestProcess_ResponseFailureApologies(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"rate limited", errors.New("googleapi: Error 429: quota exceeded"), commonerrors.HighDemandMessage},
		{"other failure", errors.New("connection reset by peer"), commonerrors.ApologyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gen.replies[kindExtract] = redmiExtraction
			h.gen.errs[kindResponse] = tt.err
			h.catalog.entries = []models.CatalogEntry{redmi12C()}

			resp := h.orch.Process(context.Background(), "Redmi 12C", "")

			assert.Equal(t, tt.wantMsg, resp.ResponseText)
			assert.Empty(t, resp.Recommendations)
			assert.False(t, resp.UsedAugmentation)

			session, ok, err := h.memory.Get(context.Background(), resp.SessionID)
			require.NoError(t, err)
			require.True(t, ok)
			require.Len(t, session.History, 1, "the apology turn is still recorded")
			assert.Equal(t, tt.wantMsg, session.History[0].AssistantResponse)
			assert.Equal(t, []string{OutcomeFallback}, h.recorder.outcomes)
		})
	}
}

func TestProcess_SessionMutatedOnlyAfterResponse(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = redmiExtraction
	h.gen.replies[kindResponse] = "The Redmi 12C fits your budget."
	h.catalog.entries = []models.CatalogEntry{redmi12C()}

	h.orch.Process(context.Background(), "show me Redmi 12C", "")

	responseAt := h.events.indexOf("generate:" + kindResponse)
	appendAt := h.events.indexOf("append")
	prefsAt := h.events.indexOf("preferences")
	require.NotEqual(t, -1, responseAt)
	require.NotEqual(t, -1, appendAt)
	assert.Less(t, responseAt, appendAt)
	assert.Less(t, appendAt, prefsAt)
}

func TestProcess_NoMatchesAugmentsWithEnhancedFollowUp(t *testing.T) {
	h := newHarness(t)
	query := "best phones under 10k"
	enhanced := "best smartphones under 10000 rupees India reviews"
	h.gen.replies[kindEnhance] = enhanced
	h.gen.replies[kindResponse] = "Here are some options worth a look."
	h.search.results[query] = []models.SearchResult{{Title: "Top budget phones", Snippet: "Our picks", Link: "https://a.example"}}
	h.search.results[enhanced] = []models.SearchResult{{Title: "Under 10k roundup", Snippet: "Tested", Link: "https://b.example"}}

	resp := h.orch.Process(context.Background(), query, "")

	assert.True(t, resp.UsedAugmentation)
	assert.Empty(t, resp.Recommendations)
	assert.Equal(t, []string{query, enhanced}, h.search.queries)
	assert.Empty(t, h.gen.promptsFor(kindDecision), "zero matches skip the classifier")

	require.Len(t, h.catalog.calls, 1)
	require.NotNil(t, h.catalog.calls[0].MaxPrice)
	assert.Equal(t, 10000.0, *h.catalog.calls[0].MaxPrice)

	responsePrompts := h.gen.promptsFor(kindResponse)
	require.Len(t, responsePrompts, 1)
	assert.Contains(t, responsePrompts[0], "Top budget phones")
	assert.Contains(t, responsePrompts[0], "Under 10k roundup")
	assert.Contains(t, responsePrompts[0], "No phones found matching the criteria.")
}

func TestProcess_EnoughWebResultsSkipEnhancement(t *testing.T) {
	h := newHarness(t)
	query := "flagship launches this month"
	h.gen.replies[kindResponse] = "Fresh launches this month."
	h.search.results[query] = []models.SearchResult{
		{Title: "One", Link: "https://1.example"},
		{Title: "Two", Link: "https://2.example"},
	}

	h.orch.Process(context.Background(), query, "")

	assert.Equal(t, []string{query}, h.search.queries)
	assert.Empty(t, h.gen.promptsFor(kindEnhance))
}

func TestProcess_ComparisonSearch(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = `{"brands": ["Xiaomi", "Samsung"], "models": ["Redmi 12C", "Galaxy A15"], "price_range": null, "features": [], "confidence": 0.9}`
	h.gen.replies[kindDecision] = "WEB_SEARCH"
	h.gen.replies[kindResponse] = "Redmi 12C vs Samsung Galaxy A15 5G: the Galaxy has 5G."
	h.catalog.entries = []models.CatalogEntry{redmi12C(), galaxyA15()}
	h.search.results["Redmi 12C vs Galaxy A15"] = []models.SearchResult{
		{Title: "Head to head", Link: "https://c.example"},
		{Title: "Spec sheet", Link: "https://d.example"},
	}

	resp := h.orch.Process(context.Background(), "Redmi 12C vs Galaxy A15", "")

	assert.True(t, resp.UsedAugmentation)
	assert.Equal(t, [][2]string{{"Redmi 12C", "Galaxy A15"}}, h.search.comparisons)
	assert.Empty(t, h.search.queries)
	assert.Len(t, resp.Recommendations, 2)
}

func TestProcess_LatestReleasesSearch(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = `{"brands": [], "models": [], "price_range": null, "features": ["gaming"], "confidence": 0.9}`
	h.gen.replies[kindResponse] = "Here are this year's gaming launches."
	h.search.results["latest gaming"] = []models.SearchResult{
		{Title: "Top gaming phones", Link: "https://e.example"},
		{Title: "New flagships", Link: "https://f.example"},
	}

	resp := h.orch.Process(context.Background(), "what are the latest gaming phones", "")

	assert.True(t, resp.UsedAugmentation)
	assert.Equal(t, []string{"gaming"}, h.search.latest)
	assert.Empty(t, h.search.queries)
	assert.Empty(t, h.gen.promptsFor(kindEnhance))
}

func TestProcess_CatalogFailureDegradesToNoMatches(t *testing.T) {
	h := newHarness(t)
	h.catalog.err = errors.New("QUERY_EXECUTION_FAILED: connection refused")
	h.gen.replies[kindResponse] = "Let me share what I know."

	resp := h.orch.Process(context.Background(), "phones with a good camera", "")

	assert.Equal(t, "Let me share what I know.", resp.ResponseText)
	assert.True(t, resp.UsedAugmentation)
	assert.Empty(t, resp.Recommendations)
}

func TestProcess_ConversationContinues(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = redmiExtraction
	h.gen.replies[kindResponse] = "The Redmi 12C is a solid choice."
	h.catalog.entries = []models.CatalogEntry{redmi12C()}

	first := h.orch.Process(context.Background(), "Redmi 12C", "")
	second := h.orch.Process(context.Background(), "what about its battery?", first.SessionID)

	assert.Equal(t, first.SessionID, second.SessionID)
	session, ok, err := h.memory.Get(context.Background(), first.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, session.History, 2)

	responsePrompts := h.gen.promptsFor(kindResponse)
	require.Len(t, responsePrompts, 2)
	assert.NotContains(t, responsePrompts[0], "Recent conversation context")
	assert.Contains(t, responsePrompts[1], "Recent conversation context")
	assert.Contains(t, responsePrompts[1], "User: Redmi 12C")
}

func TestProcess_UnknownSessionStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindResponse] = "Happy to help."

	resp := h.orch.Process(context.Background(), "good phones", "does-not-exist")

	assert.NotEqual(t, "does-not-exist", resp.SessionID)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 1, h.memory.Len())
}

func TestProcess_SessionStoreUnavailable(t *testing.T) {
	h := newHarness(t)
	h.store.createErr = errors.New("redis: connection refused")
	h.gen.replies[kindResponse] = "Happy to help."

	resp := h.orch.Process(context.Background(), "good phones", "")

	assert.Equal(t, "Happy to help.", resp.ResponseText)
	assert.Empty(t, resp.SessionID)
	assert.Equal(t, -1, h.events.indexOf("append"))
}

func TestBuildFilters(t *testing.T) {
	intent := &models.ExtractionResult{
		Brands:     []string{"Samsung"},
		Features:   []string{"performance", "storage", "camera"},
		PriceRange: models.PriceRange{Max: models.Float64Ptr(30000)},
	}

	filters := buildFilters(intent, 20)

	assert.Equal(t, []string{"Samsung"}, filters.Brands)
	assert.Equal(t, 6, filters.MinRAM)
	assert.Equal(t, 128, filters.MinStorage)
	assert.Nil(t, filters.MinPrice)
	assert.Equal(t, 30000.0, *filters.MaxPrice)
	assert.Equal(t, 20, filters.Limit)

	plain := buildFilters(&models.ExtractionResult{Features: []string{"camera"}}, 20)
	assert.Zero(t, plain.MinRAM)
	assert.Zero(t, plain.MinStorage)
}

func TestPreferencesFrom(t *testing.T) {
	prefs := preferencesFrom(&models.ExtractionResult{
		Brands:     []string{"Apple"},
		Features:   []string{"camera"},
		PriceRange: models.PriceRange{Min: models.Float64Ptr(50000), Max: models.Float64Ptr(90000)},
	})
	assert.Equal(t, map[string]interface{}{
		PrefPreferredBrands: []string{"Apple"},
		PrefFeatureFocus:    []string{"camera"},
		PrefBudgetMin:       50000.0,
		PrefBudgetMax:       90000.0,
	}, prefs)

	assert.Empty(t, preferencesFrom(&models.ExtractionResult{}))
}

func TestProcess_UserIntentFeedsPromptAndPreferences(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = redmiExtraction
	h.gen.replies[kindIntent] = `{"intent": "specification", "budget_range": {"min": null, "max": 12000},
		"preferred_brands": ["Xiaomi"], "feature_focus": ["battery"], "urgency": "high", "needs_multiple_options": false}`
	h.gen.replies[kindResponse] = "The **Redmi 12C** has a 5000mAh battery."
	h.catalog.entries = []models.CatalogEntry{redmi12C()}

	resp := h.orch.Process(context.Background(), "Redmi 12C battery", "")

	require.NotNil(t, resp.UserIntent)
	assert.Equal(t, models.IntentSpecification, resp.UserIntent.Intent)
	assert.Equal(t, models.UrgencyHigh, resp.UserIntent.Urgency)

	responsePrompts := h.gen.promptsFor(kindResponse)
	require.Len(t, responsePrompts, 1)
	assert.Contains(t, responsePrompts[0], "User's budget: Up to ₹12,000")
	assert.Contains(t, responsePrompts[0], "urgency: high")

	session, ok, err := h.memory.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.IntentSpecification, session.Preferences["intent"])
	assert.Equal(t, false, session.Preferences["needs_multiple_options"])
	assert.Equal(t, 12000.0, session.Preferences[PrefBudgetMax])
	assert.Equal(t, []string{"Xiaomi"}, session.Preferences[PrefPreferredBrands])
}

func TestProcess_UserIntentFallsBackToDefault(t *testing.T) {
	h := newHarness(t)
	h.gen.replies[kindExtract] = redmiExtraction
	h.gen.errs[kindIntent] = errors.New("PROVIDER_EXHAUSTED")
	h.gen.replies[kindResponse] = "The **Redmi 12C** is a budget pick."
	h.catalog.entries = []models.CatalogEntry{redmi12C()}

	resp := h.orch.Process(context.Background(), "Redmi 12C", "")

	assert.Equal(t, models.DefaultUserIntent(), resp.UserIntent)
	require.Len(t, resp.Recommendations, 1)

	session, ok, err := h.memory.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.IntentRecommendation, session.Preferences["intent"])
	assert.Equal(t, models.UrgencyMedium, session.Preferences["urgency"])
}

func TestUpdatedPreferences_ExtractionWins(t *testing.T) {
	userIntent := models.DefaultUserIntent()
	userIntent.PreferredBrands = []string{"Apple"}
	userIntent.BudgetRange.Max = models.Float64Ptr(50000)

	prefs := updatedPreferences(userIntent, &models.ExtractionResult{Brands: []string{"Samsung"}})
	assert.Equal(t, []string{"Samsung"}, prefs[PrefPreferredBrands])
	assert.Equal(t, 50000.0, prefs[PrefBudgetMax])
	assert.Equal(t, models.IntentRecommendation, prefs["intent"])

	assert.Empty(t, updatedPreferences(nil, &models.ExtractionResult{}))
}

func TestProcess_EndedRequestIsNotSaved(t *testing.T) {
	tests := []struct {
		name        string
		responseErr error
	}{
		{"reply generated", nil},
		{"generation cancelled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gen.replies[kindExtract] = redmiExtraction
			h.gen.replies[kindResponse] = "The **Redmi 12C** is a budget pick."
			h.gen.errs[kindResponse] = tt.responseErr
			h.catalog.entries = []models.CatalogEntry{redmi12C()}

			sid, err := h.memory.Create(context.Background())
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			resp := h.orch.Process(ctx, "client went away", sid)

			assert.Equal(t, sid, resp.SessionID)
			assert.Equal(t, -1, h.events.indexOf("append"))
			assert.Equal(t, -1, h.events.indexOf("preferences"))
			session, ok, err := h.memory.Get(context.Background(), sid)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Empty(t, session.History)
			assert.Empty(t, session.Preferences)
			assert.Equal(t, []string{OutcomeAbandoned}, h.recorder.outcomes)
		})
	}
}
