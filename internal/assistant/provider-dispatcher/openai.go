package providerdispatcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	commonhttp "shopping-assistant/internal/common/http"
)

// OpenAIBackend talks to an OpenAI-compatible chat completions endpoint.
type OpenAIBackend struct {
	config *OpenAIConfig
	client *commonhttp.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIBackend(cfg *OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	return &OpenAIBackend{
		config: cfg,
		client: commonhttp.NewClient(cfg.Timeout),
	}, nil
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: b.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: b.config.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   b.config.MaxTokens,
		Temperature: b.config.Temperature,
	}

	var resp chatResponse
	url := strings.TrimRight(b.config.BaseURL, "/") + "/v1/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + b.config.APIKey}
	if err := b.client.DoJSON(ctx, http.MethodPost, url, headers, req, &resp); err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return text, nil
}
