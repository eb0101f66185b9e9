package ai

import (
	"context"
	"fmt"

	"github.com/manishsharma864/ai-horroscope/internal/config"
	"github.com/manishsharma864/ai-horroscope/internal/conversation"
)

// New builds the text generator for the configured provider.
func New(ctx context.Context, cfg config.AIConfig) (conversation.TextGenerator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("no usable credentials for provider %q", cfg.ResolvedProvider())
	}

	opts := Options{SystemPrompt: cfg.SystemPrompt, Timeout: cfg.Timeout}

	switch provider := cfg.ResolvedProvider(); provider {
	case config.ProviderGemini:
		gemini, err := NewGemini(ctx, GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Options: opts,
		})
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case config.ProviderArk, config.ProviderOpenAI:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s chat model: %w", provider, err)
		}
		svc, err := NewService(ctx, chatModel, opts)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}
