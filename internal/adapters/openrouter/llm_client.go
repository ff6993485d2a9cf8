package openrouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-email-assistant/internal/core"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// chatCompletions is the part of the SDK's chat completion service this adapter uses
type chatCompletions interface {
	New(ctx context.Context, body openaisdk.ChatCompletionNewParams, opts ...option.RequestOption) (*openaisdk.ChatCompletion, error)
}

// OpenRouterClient is an implementation of the LLMClient interface using OpenRouter
type OpenRouterClient struct {
	completions chatCompletions
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(
	completions chatCompletions,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenRouterClient {
	return &OpenRouterClient{
		completions: completions,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Complete sends the prompt to the routed model and returns the reply text
func (c *OpenRouterClient) Complete(ctx context.Context, prompt core.Prompt) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if prompt.System != "" {
		messages = append(messages, openaisdk.SystemMessage(prompt.System))
	}
	messages = append(messages, openaisdk.UserMessage(prompt.User))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.modelName),
		Messages:    messages,
		Temperature: openaisdk.Float(float64(c.temperature)),
		TopP:        openaisdk.Float(float64(c.topP)),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(c.maxTokens))
	}

	resp, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenRouter: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenRouter")
	}

	c.logger.Debug("OpenRouter completion received",
		zap.String("prompt", prompt.Name),
		zap.String("model", resp.Model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
