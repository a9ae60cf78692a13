package providerdispatcher

import (
	"time"

	"shopping-assistant/internal/common/config"
)

const DefaultMaxRetries = 2

type Config struct {
	Primary    string
	MaxRetries int
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
}

type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

const defaultSystemPrompt = "You are a helpful mobile phone shopping assistant."

func LoadConfig(cfg config.ProvidersConfig) *Config {
	c := &Config{
		Primary:    cfg.Primary,
		MaxRetries: cfg.MaxRetries,
		Gemini: GeminiConfig{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			BaseURL:     cfg.Gemini.BaseURL,
			Timeout:     config.GetDuration(cfg.Gemini.Timeout),
			Temperature: 0.7,
		},
		OpenAI: OpenAIConfig{
			APIKey:       cfg.OpenAI.APIKey,
			Model:        cfg.OpenAI.Model,
			BaseURL:      cfg.OpenAI.BaseURL,
			Timeout:      config.GetDuration(cfg.OpenAI.Timeout),
			MaxTokens:    cfg.OpenAI.MaxTokens,
			Temperature:  cfg.OpenAI.Temperature,
			SystemPrompt: defaultSystemPrompt,
		},
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-3.5-turbo"
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 2000
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.7
	}
	return c
}
