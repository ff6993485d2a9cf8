package factory

import (
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/adapters/bedrock"
	"github.com/mikey/llm-email-assistant/internal/adapters/gemini"
	"github.com/mikey/llm-email-assistant/internal/adapters/openai"
	"github.com/mikey/llm-email-assistant/internal/adapters/openrouter"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration.
// Every call of the returned client is bounded by llm.timeout.
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	var (
		client core.LLMClient
		err    error
	)
	switch llmConfig.Provider {
	case "openai":
		client, err = openai.NewFactory("openai", f.cfg.GetOpenAI(), f.logger).CreateLLMClient()
	case "groq":
		client, err = openai.NewFactory("groq", f.cfg.GetGroq(), f.logger).CreateLLMClient()
	case "gemini":
		client, err = gemini.NewFactory(f.cfg.GetGemini(), f.logger).CreateLLMClient()
	case "bedrock":
		client, err = bedrock.NewFactory(f.cfg.GetBedrock(), f.logger).CreateLLMClient()
	case "openrouter":
		client, err = openrouter.NewFactory(f.cfg.GetOpenRouter(), f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", llmConfig.Provider, err)
	}

	return core.WithCallTimeout(client, llmConfig.Timeout, f.logger), nil
}

// MaxBodySize returns the body size limit of the selected provider
func (f *LLMFactory) MaxBodySize() int {
	return f.cfg.GetLLM().MaxBodySize
}
