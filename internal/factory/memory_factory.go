package factory

import (
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/adapters/memory"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"go.uber.org/zap"
)

// MemoryFactory creates sender memory repositories based on configuration
type MemoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMemoryFactory creates a new memory factory
func NewMemoryFactory(cfg *config.Config, logger *zap.Logger) *MemoryFactory {
	return &MemoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMemoryRepository creates a memory repository based on the configuration
func (f *MemoryFactory) CreateMemoryRepository() (core.MemoryRepository, error) {
	memCfg := f.cfg.GetMemory()

	switch memCfg.Type {
	case "json":
		f.logger.Info("Using JSON memory file", zap.String("path", memCfg.Path))
		return memory.NewJSONStore(memCfg.Path, memory.JSONStoreOptions{
			CreateIfMissing: memCfg.CreateIfMissing,
			ResetOnCorrupt:  memCfg.ResetOnCorrupt,
		}, f.logger), nil
	case "sqlite":
		return memory.NewSQLiteStore(memCfg.SQLitePath, f.logger)
	case "mysql":
		return memory.NewMySQLStore(memCfg.MySQLDSN, f.logger)
	case "memory":
		return memory.NewInProcessStore(f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported memory type: %s", memCfg.Type)
	}
}
