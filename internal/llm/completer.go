// Package llm is the language-model structuring fallback: it asks a model to
// turn raw statement text into transactions and accepts the answer only when
// it passes schema validation.
package llm

import (
	"context"
	"fmt"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/config"
)

// Completer sends one system + user prompt pair to a model and returns the
// raw text of its answer.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewCompleter builds the backend selected by cfg.Provider. A missing API key
// is reported as common.ErrConfiguration.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: no API key: %w", common.ErrConfiguration)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewChatClient(cfg), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q: %w", cfg.Provider, common.ErrConfiguration)
	}
}
