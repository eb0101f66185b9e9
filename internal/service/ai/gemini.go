package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini generates replies with Google's Gemini API.
type Gemini struct {
	client       *genai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
}

// GeminiConfig configures NewGemini. BaseURL is only needed to point the
// client at a proxy or a test server.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Options
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:       client,
		model:        modelName,
		systemPrompt: cfg.SystemPrompt,
		timeout:      cfg.Timeout,
	}, nil
}

// Generate sends prompt to Gemini and returns the reply text.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var genCfg *genai.GenerateContentConfig
	if g.systemPrompt != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.systemPrompt, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	log.Info().Str("component", "ai").Str("model", g.model).Int("length", len(text)).Msg("generated response")
	return text, nil
}
