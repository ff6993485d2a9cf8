package ports

import (
	"context"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// Assistant is the part of the assistant service that intakes drive
type Assistant interface {
	// Process runs one email through the pipeline and persists the interaction
	Process(ctx context.Context, record *core.EmailRecord, opts core.ProcessOptions) (*core.ProcessingResult, error)

	// ClearMemory forgets a sender, or every sender when address is empty
	ClearMemory(ctx context.Context, address string) error
}

// EmailIntake defines the interface for long-running email sources
type EmailIntake interface {
	// Start starts accepting email
	Start() error

	// Stop stops accepting email
	Stop() error
}
