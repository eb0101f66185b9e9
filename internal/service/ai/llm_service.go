package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Service generates replies through an eino chain: prompt template, then chat model.
type Service struct {
	systemPrompt string
	timeout      time.Duration
	chain        compose.Runnable[map[string]any, *schema.Message]
}

// Options tunes a generator.
type Options struct {
	SystemPrompt string
	Timeout      time.Duration
}

// NewService compiles the generation chain around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel, opts Options) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	templates := make([]schema.MessagesTemplate, 0, 2)
	if opts.SystemPrompt != "" {
		templates = append(templates, schema.SystemMessage("{system}"))
	}
	templates = append(templates, schema.UserMessage("{query}"))

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(prompt.FromMessages(schema.FString, templates...))
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &Service{
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
		chain:        runnable,
	}, nil
}

// Generate sends prompt to the chat model and returns the reply text.
func (s *Service) Generate(ctx context.Context, query string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	input := map[string]any{"query": query}
	if s.systemPrompt != "" {
		input["system"] = s.systemPrompt
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}

	text := strings.TrimSpace(response.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	log.Info().Str("component", "ai").Int("promptLength", len(query)).Int("length", len(text)).Msg("generated response")
	return text, nil
}
