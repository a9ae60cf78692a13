package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml and config.<APP_ENVIRONMENT>.yaml from ./configs or the working
// directory, then applies environment overrides, defaults and validation.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional per-environment overlay

	return build(v)
}

func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// registerDefaults makes every key known to viper so AutomaticEnv can override it.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "shopping-assistant")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 60000)
	v.SetDefault("server.shutdown_timeout", 10000)

	v.SetDefault("providers.primary", "gemini")
	v.SetDefault("providers.max_retries", 2)
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.gemini.base_url", "")
	v.SetDefault("providers.gemini.timeout", 30000)
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.model", "gpt-3.5-turbo")
	v.SetDefault("providers.openai.base_url", "https://api.openai.com")
	v.SetDefault("providers.openai.timeout", 30000)
	v.SetDefault("providers.openai.max_tokens", 2000)
	v.SetDefault("providers.openai.temperature", 0.7)

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "mobile_phones")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.elasticsearch.url", "")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("catalog.backend", "postgres")
	v.SetDefault("catalog.index", "mobile_phones")
	v.SetDefault("catalog.max_results", 20)
	v.SetDefault("catalog.vocabulary_cache_ttl_seconds", 300)

	v.SetDefault("sessions.backend", "memory")
	v.SetDefault("sessions.ttl_hours", 24)
	v.SetDefault("sessions.max_history", 10)
	v.SetDefault("sessions.sweep_interval_seconds", 600)
	v.SetDefault("sessions.shards", 32)
	v.SetDefault("sessions.key_prefix", "session:")

	v.SetDefault("web_search.enabled", true)
	v.SetDefault("web_search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("web_search.api_key", "")
	v.SetDefault("web_search.engine_id", "")
	v.SetDefault("web_search.timeout", 10000)
	v.SetDefault("web_search.max_results", 3)

	v.SetDefault("assistant.max_recommendations", 5)
	v.SetDefault("assistant.recent_turns", 5)
	v.SetDefault("assistant.scope_check", true)
	v.SetDefault("assistant.intent_analysis", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file.path", "logs/shopping-assistant.log")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 30)
	v.SetDefault("logging.file.compress", true)
}

// overrideEmptyConfig fills credentials from the conventional provider variable names.
func overrideEmptyConfig(cfg *Config) {
	fill := func(dst *string, envKeys ...string) {
		if *dst != "" {
			return
		}
		for _, key := range envKeys {
			if val := os.Getenv(key); val != "" {
				*dst = val
				return
			}
		}
	}

	fill(&cfg.Providers.Gemini.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	fill(&cfg.Providers.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&cfg.WebSearch.APIKey, "GOOGLE_SEARCH_API_KEY", "WEB_SEARCH_API_KEY")
	fill(&cfg.WebSearch.EngineID, "GOOGLE_SEARCH_ENGINE_ID", "WEB_SEARCH_ENGINE_ID")
	fill(&cfg.Database.Postgres.User, "DB_USER")
	fill(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	fill(&cfg.Database.Redis.Address, "REDIS_ADDR")
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Providers.MaxRetries <= 0 {
		cfg.Providers.MaxRetries = 2
	}
	if cfg.Catalog.MaxResults <= 0 || cfg.Catalog.MaxResults > 20 {
		cfg.Catalog.MaxResults = 20
	}
	if cfg.Sessions.MaxHistory <= 0 {
		cfg.Sessions.MaxHistory = 10
	}
	if cfg.Sessions.Shards <= 0 {
		cfg.Sessions.Shards = 32
	}
	if cfg.WebSearch.MaxResults <= 0 {
		cfg.WebSearch.MaxResults = 3
	}
	if cfg.Assistant.MaxRecommendations <= 0 {
		cfg.Assistant.MaxRecommendations = 5
	}
	cfg.Providers.Primary = strings.ToLower(cfg.Providers.Primary)
	cfg.Catalog.Backend = strings.ToLower(cfg.Catalog.Backend)
	cfg.Sessions.Backend = strings.ToLower(cfg.Sessions.Backend)
}

func validateConfig(cfg *Config) error {
	switch cfg.Providers.Primary {
	case "gemini", "openai":
	default:
		return fmt.Errorf("providers.primary must be gemini or openai, got %q", cfg.Providers.Primary)
	}
	if cfg.Providers.Gemini.APIKey == "" && cfg.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("providers.gemini.api_key or providers.openai.api_key is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}

	switch cfg.Catalog.Backend {
	case "postgres":
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch catalog")
		}
	default:
		return fmt.Errorf("catalog.backend must be postgres or elasticsearch, got %q", cfg.Catalog.Backend)
	}

	switch cfg.Sessions.Backend {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session store")
		}
	default:
		return fmt.Errorf("sessions.backend must be memory or redis, got %q", cfg.Sessions.Backend)
	}

	if cfg.Sessions.TTLHours <= 0 {
		return fmt.Errorf("sessions.ttl_hours must be positive")
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

func (s SessionsConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

func (c CatalogConfig) VocabularyCacheTTL() time.Duration {
	return time.Duration(c.VocabularyCacheTTLSeconds) * time.Second
}
