// Package scopegate rejects queries that are harmful or unrelated to phone shopping.
package scopegate

import (
	"context"
	"strings"

	"shopping-assistant/internal/assistant/prompts"
	"shopping-assistant/internal/common/logger"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gate classifies queries through a generator. It is permissive: a failed call or an
// unrecognized reply lets the query through.
type Gate struct {
	generator Generator
	logger    logger.Logger
}

func New(generator Generator, log logger.Logger) *Gate {
	return &Gate{generator: generator, logger: log}
}

func (g *Gate) IsInScope(ctx context.Context, text string) bool {
	reply, err := g.generator.Generate(ctx, prompts.ScopeCheck(text))
	if err != nil {
		g.logger.Warn("Scope check unavailable, allowing query", map[string]interface{}{"error": err.Error()})
		return true
	}

	// Only an explicit UNSAFE refuses. A reply that is neither label is treated like a
	// failed call and lets the query through.
	label := strings.ToUpper(strings.Trim(strings.TrimSpace(reply), "\"'`.:*"))
	if strings.HasPrefix(label, prompts.LabelUnsafe) {
		g.logger.Info("Query rejected by scope check", nil)
		return false
	}
	return true
}

// AllowAll is used when scope checking is disabled.
type AllowAll struct{}

func (AllowAll) IsInScope(context.Context, string) bool { return true }
