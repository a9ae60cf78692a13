// Package orchestrator sequences one conversational turn: scope check, session, analysis,
// catalog lookup, augmentation, response generation and session update.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"shopping-assistant/internal/assistant/prompts"
	providerdispatcher "shopping-assistant/internal/assistant/provider-dispatcher"
	sessionstore "shopping-assistant/internal/assistant/session-store"
	commonerrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
)

// Dependencies are constructed once at startup and shared by every request.
type Dependencies struct {
	Scope     ScopeGate
	Analyzer  Analyzer
	Intents   IntentAnalyzer
	Catalog   CatalogQuery
	Decider   Decider
	Search    WebSearcher
	Generator Generator
	Sessions  sessionstore.Store
	Recorder  QueryRecorder
}

type Orchestrator struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

func New(cfg *Config, deps Dependencies, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		config: cfg.withDefaults(),
		deps:   deps,
		logger: log.With(map[string]interface{}{"component": "orchestrator"}),
		now:    time.Now,
	}
}

// Process never returns an error: every collaborator failure becomes a polite reply.
// The session is only mutated once a reply exists.
func (o *Orchestrator) Process(ctx context.Context, text, sessionID string) *models.Response {
	start := o.now()

	if !o.deps.Scope.IsInScope(ctx, text) {
		o.logger.Info("Query refused", map[string]interface{}{
			"sessionId": sessionID,
			"code":      commonerrors.NewOutOfScopeError().Code,
		})
		o.record(ctx, start, OutcomeRefused, false)
		return &models.Response{
			ResponseText:    commonerrors.RefusalMessage,
			Recommendations: []models.CatalogEntry{},
			SessionID:       sessionID,
			UserIntent:      &models.UserIntent{Intent: models.IntentUnsafe},
		}
	}

	session := o.resolveSession(ctx, sessionID)
	log := o.logger.With(map[string]interface{}{"sessionId": session.ID})

	query := models.NewQuery(text, start)
	intent := o.deps.Analyzer.Analyze(ctx, query)
	userIntent := o.analyzeIntent(ctx, text, session)
	prefs := mergePreferences(session.Preferences, userIntent, intent)

	matches, err := o.deps.Catalog.FindMatches(ctx, buildFilters(intent, o.config.CatalogLimit))
	if err != nil {
		log.Warn("Catalog lookup failed, continuing without matches",
			map[string]interface{}{"error": commonerrors.NewCatalogQueryFailedError("catalog", err).Details})
		matches = nil
	}
	if len(matches) == 0 {
		log.Info("No catalog matches", map[string]interface{}{"code": commonerrors.ErrCodeEmptyCatalogResult})
	}

	decision := o.deps.Decider.ShouldAugment(ctx, query, len(matches), matches, session)

	var webResults []models.SearchResult
	if decision.UseAugmentation {
		webResults = o.augment(ctx, text, intent, matches)
	}

	prompt := prompts.Response(prompts.ResponseInput{
		Query:       text,
		CatalogData: prompts.CatalogData(matches),
		WebData:     prompts.WebData(webResults),
		History:     prompts.History(session.RecentTurns(o.config.RecentTurns)),
		Preferences: prompts.Preferences(prefs),
	})

	resp := &models.Response{
		SessionID:       session.ID,
		Intent:          intent,
		UserIntent:      userIntent,
		Recommendations: []models.CatalogEntry{},
	}
	outcome := OutcomeAnswered

	reply, err := o.deps.Generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		outcome = OutcomeFallback
		resp.ResponseText = o.apology(log, err)
	} else {
		resp.ResponseText = reply
		resp.UsedAugmentation = decision.UseAugmentation
		resp.Recommendations = FilterMentioned(reply, topN(matches, o.config.MaxRecommendations))
	}

	// A caller that went away or ran out of time never sees the reply, so it is not history.
	if err := ctx.Err(); err != nil {
		outcome = OutcomeAbandoned
		log.Warn("Request ended before the turn completed, not saving it", map[string]interface{}{"error": err.Error()})
	} else {
		o.persist(ctx, log, session.ID, text, resp, updatedPreferences(userIntent, intent))
	}
	o.record(ctx, start, outcome, resp.UsedAugmentation)

	log.Info("Query processed", map[string]interface{}{
		"outcome":         outcome,
		"matchCount":      len(matches),
		"rationale":       decision.Rationale,
		"webResults":      len(webResults),
		"recommendations": len(resp.Recommendations),
		"durationMs":      o.now().Sub(start).Milliseconds(),
	})
	return resp
}

// analyzeIntent returns nil when no intent analyzer is configured.
func (o *Orchestrator) analyzeIntent(ctx context.Context, text string, session *models.Session) *models.UserIntent {
	if o.deps.Intents == nil {
		return nil
	}
	return o.deps.Intents.AnalyzeIntent(ctx, text, session.RecentTurns(o.config.RecentTurns))
}

// resolveSession returns the live session for id, or a fresh one when id is empty,
// unknown or expired. A store failure yields an unsaved session so the turn still runs.
func (o *Orchestrator) resolveSession(ctx context.Context, id string) *models.Session {
	if id != "" {
		session, ok, err := o.deps.Sessions.Get(ctx, id)
		if err != nil {
			o.logger.Warn("Session lookup failed", map[string]interface{}{"sessionId": id, "error": err.Error()})
		} else if ok {
			return session
		} else {
			o.logger.Debug("Session absent or expired, starting a new one", map[string]interface{}{
				"sessionId": id,
				"code":      commonerrors.ErrCodeSessionExpired,
			})
		}
	}

	newID, err := o.deps.Sessions.Create(ctx)
	if err != nil {
		o.logger.Error("Session creation failed", map[string]interface{}{"error": err.Error()})
		return models.NewSession("", o.now())
	}
	if session, ok, err := o.deps.Sessions.Get(ctx, newID); err == nil && ok {
		return session
	}
	return models.NewSession(newID, o.now())
}

// augment runs the web search and, when it comes back thin, one follow-up with a
// rewritten query whose results are appended.
func (o *Orchestrator) augment(ctx context.Context, text string, intent *models.ExtractionResult, matches []models.CatalogEntry) []models.SearchResult {
	var results []models.SearchResult
	switch {
	case len(intent.Models) == 2 && isComparison(text):
		results = o.deps.Search.SearchComparison(ctx, intent.Models[0], intent.Models[1])
	case len(intent.Brands) == 0 && len(intent.Models) == 0 && asksForLatest(text):
		category := "best"
		if len(intent.Features) > 0 {
			category = intent.Features[0]
		}
		results = o.deps.Search.SearchLatest(ctx, category)
	default:
		results = o.deps.Search.Search(ctx, text, o.config.SearchResults)
	}

	if len(results) < minUsefulWebResults {
		enhanced := o.deps.Decider.EnhanceQuery(ctx, text, matches)
		if enhanced != "" && enhanced != text {
			o.logger.Debug("Retrying web search with enhanced query", map[string]interface{}{"enhanced": enhanced})
			results = append(results, o.deps.Search.Search(ctx, enhanced, o.config.SearchResults)...)
		}
	}
	return results
}

func (o *Orchestrator) apology(log logger.Logger, err error) string {
	if providerdispatcher.IsRateLimited(err) {
		log.Warn("Response generation rate limited", map[string]interface{}{
			"code":  commonerrors.ErrCodeProviderRateLimited,
			"error": err.Error(),
		})
		return commonerrors.HighDemandMessage
	}
	log.Error("Response generation failed", map[string]interface{}{
		"code":  commonerrors.ErrCodeProviderExhausted,
		"error": err.Error(),
	})
	return commonerrors.ApologyMessage
}

func (o *Orchestrator) persist(ctx context.Context, log logger.Logger, sessionID, text string, resp *models.Response, prefs map[string]interface{}) {
	if sessionID == "" {
		return
	}

	ids := make([]int64, 0, len(resp.Recommendations))
	for _, e := range resp.Recommendations {
		ids = append(ids, e.ID)
	}
	turn := models.ConversationTurn{
		Timestamp:          o.now(),
		UserMessage:        text,
		AssistantResponse:  resp.ResponseText,
		UsedAugmentation:   resp.UsedAugmentation,
		RecommendedItemIDs: ids,
	}
	if err := o.deps.Sessions.Append(ctx, sessionID, turn); err != nil {
		log.Warn("Failed to append conversation turn", map[string]interface{}{"error": err.Error()})
		return
	}

	if len(prefs) > 0 {
		if err := o.deps.Sessions.SetPreferences(ctx, sessionID, prefs); err != nil {
			log.Warn("Failed to update preferences", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (o *Orchestrator) record(ctx context.Context, start time.Time, outcome string, augmented bool) {
	if o.deps.Recorder != nil {
		o.deps.Recorder.RecordQuery(ctx, o.now().Sub(start), outcome, augmented)
	}
}

// buildFilters maps an extraction onto catalog filters. performance and storage features
// raise the RAM and storage floors.
func buildFilters(intent *models.ExtractionResult, limit int) models.CatalogFilters {
	filters := models.CatalogFilters{
		Brands:   intent.Brands,
		Models:   intent.Models,
		MinPrice: intent.PriceRange.Min,
		MaxPrice: intent.PriceRange.Max,
		Limit:    limit,
	}
	if intent.HasFeature("performance") {
		filters.MinRAM = performanceMinRAM
	}
	if intent.HasFeature("storage") {
		filters.MinStorage = storageMinStorage
	}
	return filters
}

func preferencesFrom(intent *models.ExtractionResult) map[string]interface{} {
	prefs := map[string]interface{}{}
	if len(intent.Brands) > 0 {
		prefs[PrefPreferredBrands] = append([]string(nil), intent.Brands...)
	}
	if intent.PriceRange.Min != nil {
		prefs[PrefBudgetMin] = *intent.PriceRange.Min
	}
	if intent.PriceRange.Max != nil {
		prefs[PrefBudgetMax] = *intent.PriceRange.Max
	}
	if len(intent.Features) > 0 {
		prefs[PrefFeatureFocus] = append([]string(nil), intent.Features...)
	}
	return prefs
}

// updatedPreferences is the partial update written after a turn. Extracted brands,
// budget and features override the intent analysis for the same keys.
func updatedPreferences(userIntent *models.UserIntent, intent *models.ExtractionResult) map[string]interface{} {
	prefs := map[string]interface{}{}
	if userIntent != nil {
		for k, v := range userIntent.Preferences() {
			prefs[k] = v
		}
	}
	for k, v := range preferencesFrom(intent) {
		prefs[k] = v
	}
	return prefs
}

// mergePreferences overlays this turn's preferences on the stored ones for the prompt.
func mergePreferences(stored map[string]interface{}, userIntent *models.UserIntent, intent *models.ExtractionResult) map[string]interface{} {
	out := make(map[string]interface{}, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range updatedPreferences(userIntent, intent) {
		out[k] = v
	}
	return out
}

func isComparison(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, marker := range []string{" vs ", " vs. ", " versus ", "compare", "comparison"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// asksForLatest reports a question about recent releases with no phone named.
func asksForLatest(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range []string{"latest", "newest", "new launch", "just launched", "upcoming", "recently released"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func topN(entries []models.CatalogEntry, n int) []models.CatalogEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
