package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/llm-email-assistant/internal/utils"
	"go.uber.org/zap"
)

// LLMTextClassifier labels intent and sentiment with two independent model calls
type LLMTextClassifier struct {
	llmClient     LLMClient
	textProcessor *utils.TextProcessor
	maxBodySize   int
	parallel      bool
	logger        *zap.Logger
}

// NewLLMTextClassifier creates a classifier backed by an LLM client
func NewLLMTextClassifier(
	llmClient LLMClient,
	textProcessor *utils.TextProcessor,
	maxBodySize int,
	parallel bool,
	logger *zap.Logger,
) *LLMTextClassifier {
	return &LLMTextClassifier{
		llmClient:     llmClient,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
		parallel:      parallel,
		logger:        logger,
	}
}

// Classify runs intent and sentiment analysis and joins the results.
// A failed call yields a ClassificationError, an out-of-enum label a ValidationError.
func (c *LLMTextClassifier) Classify(ctx context.Context, body string) (Classification, error) {
	start := time.Now()
	processed := c.textProcessor.ProcessText(body, c.maxBodySize)

	var cls Classification
	err := runPair(ctx, c.parallel,
		func(ctx context.Context) error {
			intent, err := c.classifyIntent(ctx, processed)
			cls.Intent = intent
			return err
		},
		func(ctx context.Context) error {
			sentiment, err := c.analyzeSentiment(ctx, processed)
			cls.Sentiment = sentiment
			return err
		},
	)
	if err != nil {
		return Classification{}, err
	}

	c.logger.Info("Email classified",
		zap.String("intent", string(cls.Intent)),
		zap.String("sentiment", string(cls.Sentiment)),
		zap.Bool("parallel", c.parallel),
		zap.Duration("elapsed", time.Since(start)))

	return cls, nil
}

func (c *LLMTextClassifier) classifyIntent(ctx context.Context, body string) (Intent, error) {
	raw, err := c.llmClient.Complete(ctx, intentPrompt(body))
	if err != nil {
		return "", &ClassificationError{Stage: "intent", Err: err}
	}
	intent, err := ParseIntent(raw)
	if err != nil {
		c.logger.Warn("Classifier returned an unknown intent", zap.String("label", raw))
		return "", fmt.Errorf("invalid intent from classifier: %w", err)
	}
	return intent, nil
}

func (c *LLMTextClassifier) analyzeSentiment(ctx context.Context, body string) (Sentiment, error) {
	raw, err := c.llmClient.Complete(ctx, sentimentPrompt(body))
	if err != nil {
		return "", &ClassificationError{Stage: "sentiment", Err: err}
	}
	sentiment, err := ParseSentiment(raw)
	if err != nil {
		c.logger.Warn("Classifier returned an unknown sentiment", zap.String("label", raw))
		return "", fmt.Errorf("invalid sentiment from classifier: %w", err)
	}
	return sentiment, nil
}
