package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	llm := cfg.GetLLM()
	if llm.Provider != "groq" || llm.Timeout != 60*time.Second || llm.MaxBodySize != 8192 {
		t.Fatalf("llm=%+v", llm)
	}

	esc := cfg.GetEscalation()
	if esc.RepeatThreshold != 2 || esc.MaxHistoryLength != 5 {
		t.Fatalf("escalation=%+v", esc)
	}
	if len(esc.Keywords) != 4 || esc.Keywords[0] != "urgent" {
		t.Fatalf("keywords=%v", esc.Keywords)
	}

	mem := cfg.GetMemory()
	if mem.Type != "json" || !mem.CreateIfMissing || mem.ResetOnCorrupt {
		t.Fatalf("memory=%+v", mem)
	}

	groq := cfg.GetGroq()
	if groq.BaseURL != "https://api.groq.com/openai/v1" || groq.Temperature != 0.3 {
		t.Fatalf("groq=%+v", groq)
	}

	srv := cfg.GetServer()
	if srv.Relay.Port != 10025 || srv.Headers.Escalate != "X-Assistant-Escalate" {
		t.Fatalf("server=%+v", srv)
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	content := `
llm:
  provider: openai
  timeout: 5s
openai:
  model_name: gpt-4o
escalation:
  repeat_threshold: 3
  keywords: [lawsuit, chargeback]
memory:
  type: sqlite
  max_history_length: 10
reply:
  tone: friendly
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewWithFile(path)
	if err != nil {
		t.Fatalf("NewWithFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if got := cfg.GetLLM(); got.Provider != "openai" || got.Timeout != 5*time.Second {
		t.Fatalf("llm=%+v", got)
	}
	if got := cfg.GetOpenAI(); got.ModelName != "gpt-4o" || got.MaxTokens != 1000 {
		t.Fatalf("openai=%+v", got)
	}
	esc := cfg.GetEscalation()
	if esc.RepeatThreshold != 3 || esc.MaxHistoryLength != 10 || len(esc.Keywords) != 2 {
		t.Fatalf("escalation=%+v", esc)
	}
	if got := cfg.GetPipeline(); got.Tone != "friendly" || !got.Parallel {
		t.Fatalf("pipeline=%+v", got)
	}
}

func TestNewWithMissingFile(t *testing.T) {
	if _, err := NewWithFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("EMAIL_ASSISTANT_ESCALATION_REPEAT_THRESHOLD", "4")
	t.Setenv("EMAIL_ASSISTANT_LLM_PROVIDER", "gemini")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := NewWithFile(path)
	if err != nil {
		t.Fatalf("NewWithFile: %v", err)
	}
	if got := cfg.GetEscalation().RepeatThreshold; got != 4 {
		t.Fatalf("repeat_threshold=%d", got)
	}
	if got := cfg.GetLLM().Provider; got != "gemini" {
		t.Fatalf("provider=%q", got)
	}
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	tests := map[string]func(c *Config){
		"zero threshold":  func(c *Config) { c.Set("escalation.repeat_threshold", 0) },
		"zero history":    func(c *Config) { c.Set("memory.max_history_length", 0) },
		"blank keywords":  func(c *Config) { c.Set("escalation.keywords", []string{" "}) },
		"unknown tone":    func(c *Config) { c.Set("reply.tone", "sarcastic") },
		"bad timeout":     func(c *Config) { c.Set("llm.timeout", "soon") },
		"negative recent": func(c *Config) { c.Set("reply.context_entries", -1) },
	}
	for name, mutate := range tests {
		cfg := NewFromViper(NewEmptyViper())
		mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, core.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}
