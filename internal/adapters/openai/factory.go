package openai

import (
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	provider string
	cfg      config.OpenAIConfig
	logger   *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances. provider is
// "openai" or "groq" and only affects error messages and logs.
func NewFactory(provider string, cfg config.OpenAIConfig, logger *zap.Logger) *Factory {
	return &Factory{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateLLMClient creates a new OpenAIClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s api_key is required", f.provider)
	}

	clientCfg := openai.DefaultConfig(f.cfg.APIKey)
	if f.cfg.BaseURL != "" {
		clientCfg.BaseURL = f.cfg.BaseURL
	}

	f.logger.Info("Using OpenAI-compatible chat completions",
		zap.String("provider", f.provider),
		zap.String("model", f.cfg.ModelName),
		zap.String("base_url", clientCfg.BaseURL))

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		f.provider,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.logger,
	), nil
}
