package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// timeoutLLMClient bounds every call of the wrapped client
type timeoutLLMClient struct {
	next    LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

// WithCallTimeout wraps an LLM client so each Complete call is limited to timeout.
// A non-positive timeout returns the client unchanged.
func WithCallTimeout(client LLMClient, timeout time.Duration, logger *zap.Logger) LLMClient {
	if timeout <= 0 {
		return client
	}
	return &timeoutLLMClient{next: client, timeout: timeout, logger: logger}
}

// Complete calls the wrapped client under a deadline
func (c *timeoutLLMClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.next.Complete(ctx, prompt)
	if err != nil {
		c.logger.Debug("LLM call failed",
			zap.String("prompt", prompt.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	c.logger.Debug("LLM call completed",
		zap.String("prompt", prompt.Name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_size", len(text)))
	return text, nil
}

// Close releases the wrapped client when it holds resources
func (c *timeoutLLMClient) Close() error {
	if closer, ok := c.next.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
