package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	augmentationdecision "shopping-assistant/internal/assistant/augmentation-decision"
	queryanalyzer "shopping-assistant/internal/assistant/query-analyzer"
	scopegate "shopping-assistant/internal/assistant/scope-gate"
	sessionstore "shopping-assistant/internal/assistant/session-store"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
)

const (
	kindScope    = "scope"
	kindExtract  = "extract"
	kindDecision = "decision"
	kindEnhance  = "enhance"
	kindIntent   = "intent"
	kindResponse = "response"
)

func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "UNSAFE"):
		return kindScope
	case strings.Contains(prompt, "price_range"):
		return kindExtract
	case strings.Contains(prompt, "DATABASE_ONLY"):
		return kindDecision
	case strings.Contains(prompt, "search query optimizer"):
		return kindEnhance
	case strings.Contains(prompt, "Analyze the user's intent"):
		return kindIntent
	default:
		return kindResponse
	}
}

// scriptedGenerator answers each prompt kind with a canned reply.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  map[string]string
	errs     map[string]error
	prompts  map[string][]string
	recorder *eventLog
}

func newScriptedGenerator(events *eventLog) *scriptedGenerator {
	return &scriptedGenerator{
		replies: map[string]string{
			kindScope:    "SAFE",
			kindDecision: "DATABASE_ONLY",
		},
		errs:     map[string]error{},
		prompts:  map[string][]string{},
		recorder: events,
	}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	kind := promptKind(prompt)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts[kind] = append(g.prompts[kind], prompt)
	g.recorder.add("generate:" + kind)
	if err := g.errs[kind]; err != nil {
		return "", err
	}
	return g.replies[kind], nil
}

func (g *scriptedGenerator) promptsFor(kind string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts[kind]...)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) indexOf(e string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, got := range l.events {
		if got == e {
			return i
		}
	}
	return -1
}

type staticVocabulary struct{}

func (staticVocabulary) ListBrands(ctx context.Context) ([]models.BrandVocabulary, error) {
	return []models.BrandVocabulary{
		{Name: "Xiaomi", Aliases: []string{"redmi"}},
		{Name: "Samsung", Aliases: []string{"galaxy"}},
	}, nil
}

func (staticVocabulary) ListModels(ctx context.Context) ([]models.ModelVocabulary, error) {
	return []models.ModelVocabulary{
		{Name: "Redmi 12C", SearchTerms: []string{"12c"}},
		{Name: "Galaxy A15", SearchTerms: []string{"a15"}},
	}, nil
}

type fakeCatalog struct {
	entries []models.CatalogEntry
	err     error
	calls   []models.CatalogFilters
}

func (c *fakeCatalog) FindMatches(ctx context.Context, filters models.CatalogFilters) ([]models.CatalogEntry, error) {
	c.calls = append(c.calls, filters)
	if c.err != nil {
		return nil, c.err
	}
	return c.entries, nil
}

type fakeSearch struct {
	results     map[string][]models.SearchResult
	queries     []string
	comparisons [][2]string
	latest      []string
}

func (s *fakeSearch) Search(ctx context.Context, text string, limit int) []models.SearchResult {
	s.queries = append(s.queries, text)
	return s.results[text]
}

func (s *fakeSearch) SearchComparison(ctx context.Context, first, second string) []models.SearchResult {
	s.comparisons = append(s.comparisons, [2]string{first, second})
	return s.results[first+" vs "+second]
}

func (s *fakeSearch) SearchLatest(ctx context.Context, category string) []models.SearchResult {
	s.latest = append(s.latest, category)
	return s.results["latest "+category]
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) RecordQuery(ctx context.Context, duration time.Duration, outcome string, augmented bool) {
	r.outcomes = append(r.outcomes, outcome)
}

// recordingStore logs mutations so tests can check when the session changed.
type recordingStore struct {
	sessionstore.Store
	events    *eventLog
	createErr error
}

func (s *recordingStore) Create(ctx context.Context) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.events.add("create")
	return s.Store.Create(ctx)
}

func (s *recordingStore) Append(ctx context.Context, id string, turn models.ConversationTurn) error {
	s.events.add("append")
	return s.Store.Append(ctx, id, turn)
}

func (s *recordingStore) SetPreferences(ctx context.Context, id string, partial map[string]interface{}) error {
	s.events.add("preferences")
	return s.Store.SetPreferences(ctx, id, partial)
}

type harness struct {
	orch     *Orchestrator
	gen      *scriptedGenerator
	catalog  *fakeCatalog
	search   *fakeSearch
	memory   *sessionstore.MemoryStore
	store    *recordingStore
	recorder *fakeRecorder
	events   *eventLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	events := &eventLog{}
	gen := newScriptedGenerator(events)
	memory := sessionstore.NewMemoryStore(&sessionstore.Config{}, log)

	h := &harness{
		gen:      gen,
		catalog:  &fakeCatalog{},
		search:   &fakeSearch{results: map[string][]models.SearchResult{}},
		memory:   memory,
		store:    &recordingStore{Store: memory, events: events},
		recorder: &fakeRecorder{},
		events:   events,
	}
	analyzer := queryanalyzer.New(gen, staticVocabulary{}, log)
	h.orch = New(&Config{}, Dependencies{
		Scope:     scopegate.New(gen, log),
		Analyzer:  analyzer,
		Intents:   analyzer,
		Catalog:   h.catalog,
		Decider:   augmentationdecision.New(gen, log),
		Search:    h.search,
		Generator: gen,
		Sessions:  h.store,
		Recorder:  h.recorder,
	}, log)
	return h
}

func redmi12C() models.CatalogEntry {
	return models.CatalogEntry{
		ID:              3,
		Name:            "Redmi 12C",
		Brand:           "Xiaomi",
		Price:           8999,
		RAM:             4,
		Storage:         64,
		BatteryCapacity: 5000,
	}
}

func galaxyA15() models.CatalogEntry {
	return models.CatalogEntry{ID: 7, Name: "Samsung Galaxy A15 5G", Brand: "Samsung", Price: 14999, RAM: 6, Storage: 128}
}
