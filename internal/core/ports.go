package core

import (
	"context"
)

// Prompt is a single system + user instruction pair sent to a language model
type Prompt struct {
	// Name identifies the pipeline stage for logging
	Name   string
	System string
	User   string
}

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends the prompt and returns the raw text of the model's answer
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// MemoryRepository defines the interface for persisting sender history
type MemoryRepository interface {
	// Load reads the whole store; it is called once before an invocation
	Load(ctx context.Context) (*MemoryStore, error)

	// Save replaces the persisted store; it is called once after an invocation
	Save(ctx context.Context, store *MemoryStore) error
}

// TextClassifier labels an email body with intent and sentiment
type TextClassifier interface {
	Classify(ctx context.Context, body string) (Classification, error)
}

// Summarizer condenses an email into a short summary
type Summarizer interface {
	Summarize(ctx context.Context, record *EmailRecord) (string, error)
}

// ReplyGenerator drafts a reply to an email
type ReplyGenerator interface {
	Generate(ctx context.Context, req *ReplyRequest) (Reply, error)
}
