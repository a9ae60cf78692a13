package main

import (
	"context"
	"fmt"
	"time"

	augmentationdecision "shopping-assistant/internal/assistant/augmentation-decision"
	"shopping-assistant/internal/assistant/orchestrator"
	providerdispatcher "shopping-assistant/internal/assistant/provider-dispatcher"
	queryanalyzer "shopping-assistant/internal/assistant/query-analyzer"
	scopegate "shopping-assistant/internal/assistant/scope-gate"
	sessionstore "shopping-assistant/internal/assistant/session-store"
	websearch "shopping-assistant/internal/assistant/web-search"
	"shopping-assistant/internal/catalog"
	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/common/observability"
	"shopping-assistant/internal/server"
)

const (
	connectRetries = 10
	connectDelay   = 2 * time.Second
)

// app holds everything built at startup. Every component is constructed once here and
// injected; nothing is lazily initialised.
type app struct {
	cfg          *config.Config
	log          logger.Logger
	orchestrator *orchestrator.Orchestrator
	sessions     sessionstore.Store
	phones       catalog.Catalog
	vocabulary   catalog.Vocabulary
	readiness    map[string]server.Pinger
	obs          *observability.Observability
	closers      []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Shutdown step failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if a.obs != nil {
		a.obs.Shutdown()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, readiness: map[string]server.Pinger{}}

	dispatcher, err := buildDispatcher(ctx, cfg.Providers, log)
	if err != nil {
		return nil, err
	}

	var redisClient *database.RedisClient
	if cfg.Sessions.Backend == "redis" {
		redisClient, err = connectRedis(ctx, cfg.Database.Redis, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
		a.readiness["redis"] = redisClient
	}
	a.sessions = buildSessionStore(cfg.Sessions, redisClient, log)

	pg, err := connectPostgres(ctx, cfg.Database.Postgres, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, pg.Close)
	a.readiness["postgres"] = pg

	catalogCfg := catalog.LoadConfig(cfg.Catalog)
	pgCatalog := catalog.NewPostgresCatalog(catalogCfg, pg.DB, log)

	var vocabulary catalog.Vocabulary = pgCatalog
	if redisClient != nil {
		vocabulary = catalog.NewCachedVocabulary(pgCatalog, redisClient, cfg.Catalog.VocabularyCacheTTL(), log)
	}

	var matches catalog.Catalog = pgCatalog
	if catalogCfg.Backend == "elasticsearch" {
		es, err := connectElasticsearch(ctx, cfg.Database.Elasticsearch, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.readiness["elasticsearch"] = es
		matches = catalog.NewElasticsearchCatalog(catalogCfg, es.Client, log)
	}

	var scope orchestrator.ScopeGate = scopegate.AllowAll{}
	if cfg.Assistant.ScopeCheck {
		scope = scopegate.New(dispatcher, log)
	}

	analyzer := queryanalyzer.New(dispatcher, vocabulary, log)
	var intents orchestrator.IntentAnalyzer
	if cfg.Assistant.IntentAnalysis {
		intents = analyzer
	}

	a.phones = matches
	a.vocabulary = vocabulary

	a.obs = observability.New(cfg.App.Name)
	a.orchestrator = orchestrator.New(orchestrator.LoadConfig(cfg.Assistant), orchestrator.Dependencies{
		Scope:     scope,
		Analyzer:  analyzer,
		Intents:   intents,
		Catalog:   matches,
		Decider:   augmentationdecision.New(dispatcher, log),
		Search:    websearch.New(websearch.LoadConfig(cfg.WebSearch), log),
		Generator: dispatcher,
		Sessions:  a.sessions,
		Recorder:  a.obs,
	}, log)

	log.Info("Assistant initialised", map[string]interface{}{
		"primaryProvider": dispatcher.Primary(),
		"catalogBackend":  catalogCfg.Backend,
		"sessionBackend":  cfg.Sessions.Backend,
	})
	return a, nil
}

// buildDispatcher orders the configured backends by providers.primary. A backend without
// credentials is skipped and the other one serves both slots.
func buildDispatcher(ctx context.Context, cfg config.ProvidersConfig, log logger.Logger) (*providerdispatcher.Dispatcher, error) {
	pcfg := providerdispatcher.LoadConfig(cfg)

	var gemini, openai providerdispatcher.Backend
	if pcfg.Gemini.APIKey != "" {
		b, err := providerdispatcher.NewGeminiBackend(ctx, &pcfg.Gemini)
		if err != nil {
			return nil, err
		}
		gemini = b
	}
	if pcfg.OpenAI.APIKey != "" {
		b, err := providerdispatcher.NewOpenAIBackend(&pcfg.OpenAI)
		if err != nil {
			return nil, err
		}
		openai = b
	}

	primary, secondary := gemini, openai
	if pcfg.Primary == "openai" {
		primary, secondary = openai, gemini
	}
	if primary == nil {
		primary, secondary = secondary, nil
	}

	return providerdispatcher.New(primary, secondary, pcfg.MaxRetries,
		log.With(map[string]interface{}{"component": "provider-dispatcher"}))
}

func buildSessionStore(cfg config.SessionsConfig, redisClient *database.RedisClient, log logger.Logger) sessionstore.Store {
	storeCfg := sessionstore.LoadConfig(cfg)
	log = log.With(map[string]interface{}{"component": "session-store"})
	if redisClient != nil {
		return sessionstore.NewRedisStore(redisClient.Client, storeCfg, log)
	}
	return sessionstore.NewMemoryStore(storeCfg, log)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*database.RedisClient, error) {
	var client *database.RedisClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		client, err = database.NewRedis(cfg)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return err
		}
		return nil
	}, connectRetries, connectDelay, log, "Redis connection")
	if err != nil {
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}
	return client, nil
}

func connectPostgres(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return err
		}
		return nil
	}, connectRetries, connectDelay, log, "PostgreSQL connection")
	if err != nil {
		return nil, fmt.Errorf("postgres unavailable: %w", err)
	}
	return pg, nil
}

func connectElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger) (*database.ElasticsearchClient, error) {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		es, err = database.NewElasticsearch(cfg)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, connectRetries, connectDelay, log, "Elasticsearch connection")
	if err != nil {
		return nil, fmt.Errorf("elasticsearch unavailable: %w", err)
	}
	return es, nil
}
