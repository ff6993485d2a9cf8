package openrouter

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

type fakeCompletions struct {
	params openaisdk.ChatCompletionNewParams
	resp   *openaisdk.ChatCompletion
	err    error
}

func (f *fakeCompletions) New(_ context.Context, body openaisdk.ChatCompletionNewParams, _ ...option.RequestOption) (*openaisdk.ChatCompletion, error) {
	f.params = body
	return f.resp, f.err
}

func TestComplete(t *testing.T) {
	fake := &fakeCompletions{resp: &openaisdk.ChatCompletion{
		Choices: []openaisdk.ChatCompletionChoice{{Message: openaisdk.ChatCompletionMessage{Content: "Subject: Hi\nBody: Thanks"}}},
	}}
	client := NewOpenRouterClient(fake, "meta-llama/llama-3.3-70b-instruct", 200, 0.3, 0.9, zap.NewNop())

	got, err := client.Complete(context.Background(), core.Prompt{Name: "generate_reply", System: "sys", User: "user"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "Subject: Hi\nBody: Thanks" {
		t.Fatalf("got %q", got)
	}
	if string(fake.params.Model) != "meta-llama/llama-3.3-70b-instruct" || len(fake.params.Messages) != 2 {
		t.Fatalf("params=%+v", fake.params)
	}
}

func TestCompleteErrors(t *testing.T) {
	client := NewOpenRouterClient(&fakeCompletions{resp: &openaisdk.ChatCompletion{}}, "m", 0, 0, 0, zap.NewNop())
	if _, err := client.Complete(context.Background(), core.Prompt{User: "x"}); err == nil {
		t.Fatalf("expected error for empty choices")
	}

	apiErr := errors.New("upstream unavailable")
	client = NewOpenRouterClient(&fakeCompletions{err: apiErr}, "m", 0, 0, 0, zap.NewNop())
	if _, err := client.Complete(context.Background(), core.Prompt{User: "x"}); !errors.Is(err, apiErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	if _, err := NewFactory(config.OpenRouterConfig{}, zap.NewNop()).CreateLLMClient(); err == nil {
		t.Fatalf("expected error without api key")
	}
	f := NewFactory(config.OpenRouterConfig{APIKey: "k", ModelName: "m", BaseURL: "https://openrouter.ai/api/v1/", SiteName: "assistant"}, zap.NewNop())
	if _, err := f.CreateLLMClient(); err != nil {
		t.Fatalf("CreateLLMClient: %v", err)
	}
}
