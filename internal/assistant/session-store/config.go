package sessionstore

import (
	"time"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/models"
)

type Config struct {
	TTL           time.Duration
	MaxHistory    int
	Shards        int
	KeyPrefix     string
	SweepInterval time.Duration
	// Now is the clock used for expiry and activity stamps.
	Now func() time.Time
}

func LoadConfig(cfg config.SessionsConfig) *Config {
	return (&Config{
		TTL:           cfg.TTL(),
		MaxHistory:    cfg.MaxHistory,
		Shards:        cfg.Shards,
		KeyPrefix:     cfg.KeyPrefix,
		SweepInterval: cfg.SweepInterval(),
	}).withDefaults()
}

// withDefaults returns a copy with zero fields filled; a nil config yields all defaults.
func (c *Config) withDefaults() *Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.TTL <= 0 {
		out.TTL = models.DefaultSessionTTL
	}
	if out.MaxHistory <= 0 {
		out.MaxHistory = models.MaxHistoryTurns
	}
	if out.Shards <= 0 {
		out.Shards = 32
	}
	if out.KeyPrefix == "" {
		out.KeyPrefix = "session:"
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}
