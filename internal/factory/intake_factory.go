package factory

import (
	"fmt"

	"github.com/mikey/llm-email-assistant/internal/adapters/intake"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"go.uber.org/zap"
)

// IntakeFactory creates email intakes based on configuration
type IntakeFactory struct {
	cfg       *config.Config
	logger    *zap.Logger
	assistant ports.Assistant
}

// NewIntakeFactory creates a new intake factory
func NewIntakeFactory(cfg *config.Config, logger *zap.Logger, assistant ports.Assistant) *IntakeFactory {
	return &IntakeFactory{
		cfg:       cfg,
		logger:    logger,
		assistant: assistant,
	}
}

// CreateEmailIntake creates the long-running intake named by server.intake_type
func (f *IntakeFactory) CreateEmailIntake() (ports.EmailIntake, error) {
	intakeType := f.cfg.GetString("server.intake_type")

	switch intakeType {
	case "smtp":
		return intake.NewSMTPIntake(f.assistant, f.logger, f.cfg.GetServer()), nil
	default:
		return nil, fmt.Errorf("unsupported intake type: %s", intakeType)
	}
}

// CreateCLIIntake creates a command-line intake
func (f *IntakeFactory) CreateCLIIntake(opts intake.CLIOptions) (*intake.CLIIntake, error) {
	return intake.NewCLIIntake(f.assistant, f.logger, opts)
}
