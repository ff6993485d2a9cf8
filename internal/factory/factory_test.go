package factory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/llm-email-assistant/internal/adapters/intake"
	"github.com/mikey/llm-email-assistant/internal/adapters/memory"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

func testConfig(values map[string]any) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateLLMClient(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{name: "unknown provider", values: map[string]any{"llm.provider": "watson"}, wantErr: "unsupported LLM provider"},
		{name: "groq without key", values: map[string]any{"llm.provider": "groq"}, wantErr: "api_key is required"},
		{name: "gemini without key", values: map[string]any{"llm.provider": "gemini"}, wantErr: "api_key is required"},
		{name: "openrouter without key", values: map[string]any{"llm.provider": "openrouter"}, wantErr: "api_key is required"},
		{name: "groq", values: map[string]any{"llm.provider": "groq", "groq.api_key": "gsk-test"}},
		{name: "openai", values: map[string]any{"llm.provider": "openai", "openai.api_key": "sk-test"}},
		{name: "openrouter", values: map[string]any{"llm.provider": "openrouter", "openrouter.api_key": "or-test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewLLMFactory(testConfig(tt.values), zap.NewNop()).CreateLLMClient()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateLLMClient: %v", err)
			}
			if client == nil {
				t.Fatalf("nil client")
			}
		})
	}
}

func TestMaxBodySizeFollowsProvider(t *testing.T) {
	cfg := testConfig(map[string]any{"llm.provider": "gemini", "gemini.max_body_size": 2048})
	if got := NewLLMFactory(cfg, zap.NewNop()).MaxBodySize(); got != 2048 {
		t.Fatalf("MaxBodySize = %d", got)
	}
}

func TestCreateMemoryRepository(t *testing.T) {
	dir := t.TempDir()

	repo, err := NewMemoryFactory(testConfig(map[string]any{
		"memory.type": "json",
		"memory.path": filepath.Join(dir, "memory.json"),
	}), zap.NewNop()).CreateMemoryRepository()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	jsonStore, ok := repo.(*memory.JSONStore)
	if !ok || jsonStore.Path() != filepath.Join(dir, "memory.json") {
		t.Fatalf("json repository %T", repo)
	}

	repo, err = NewMemoryFactory(testConfig(map[string]any{"memory.type": "memory"}), zap.NewNop()).CreateMemoryRepository()
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := repo.(*memory.InProcessStore); !ok {
		t.Fatalf("memory repository %T", repo)
	}

	repo, err = NewMemoryFactory(testConfig(map[string]any{
		"memory.type":        "sqlite",
		"memory.sqlite_path": filepath.Join(dir, "db", "memory.db"),
	}), zap.NewNop()).CreateMemoryRepository()
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	sqliteStore, ok := repo.(*memory.SQLiteStore)
	if !ok {
		t.Fatalf("sqlite repository %T", repo)
	}
	defer sqliteStore.Stop()
	store, err := sqliteStore.Load(context.Background())
	if err != nil || store.Len() != 0 {
		t.Fatalf("fresh sqlite store: %v %v", store, err)
	}

	if _, err := NewMemoryFactory(testConfig(map[string]any{"memory.type": "redis"}), zap.NewNop()).CreateMemoryRepository(); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}

type nopAssistant struct{}

func (nopAssistant) Process(context.Context, *core.EmailRecord, core.ProcessOptions) (*core.ProcessingResult, error) {
	return &core.ProcessingResult{}, nil
}

func (nopAssistant) ClearMemory(context.Context, string) error { return nil }

func TestCreateEmailIntake(t *testing.T) {
	f := NewIntakeFactory(testConfig(nil), zap.NewNop(), nopAssistant{})
	in, err := f.CreateEmailIntake()
	if err != nil {
		t.Fatalf("smtp: %v", err)
	}
	if _, ok := in.(*intake.SMTPIntake); !ok {
		t.Fatalf("intake %T", in)
	}

	f = NewIntakeFactory(testConfig(map[string]any{"server.intake_type": "milter"}), zap.NewNop(), nopAssistant{})
	if _, err := f.CreateEmailIntake(); err == nil {
		t.Fatalf("expected unsupported intake error")
	}

	if _, err := f.CreateCLIIntake(intake.CLIOptions{Tone: "casual"}); err != nil {
		t.Fatalf("cli: %v", err)
	}
}
