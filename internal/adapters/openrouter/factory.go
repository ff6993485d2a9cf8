package openrouter

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Factory creates new instances of OpenRouterClient
type Factory struct {
	cfg    config.OpenRouterConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenRouterClient instances
func NewFactory(cfg config.OpenRouterConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new OpenRouterClient
func (f *Factory) CreateLLMClient() (core.LLMClient, error) {
	apiKey := strings.TrimSpace(f.cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api_key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(f.cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	// OpenRouter attribution headers
	if f.cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", f.cfg.SiteURL))
	}
	if f.cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", f.cfg.SiteName))
	}

	client := openaisdk.NewClient(opts...)

	f.logger.Info("Using OpenRouter", zap.String("model", f.cfg.ModelName))

	return NewOpenRouterClient(
		&client.Chat.Completions,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.logger,
	), nil
}
