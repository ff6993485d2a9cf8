package di

import (
	"flag"
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/adapters/intake"
	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/factory"
	"github.com/mikey/llm-email-assistant/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	InputFile   string
	BatchDir    string
	Interactive bool
	ClearMemory string

	// Output flags
	Output    string
	OutputDir string

	// Pipeline flags
	Tone     string
	NoMemory bool

	// LLM provider flags
	Provider  string
	ModelName string

	// Memory flags
	MemoryType string
	MemoryPath string

	// General flags
	Verbose     bool
	JSONLog     bool
	ConfigFile  string
	PrintSchema bool
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(name string, args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	// Input flags
	fs.StringVar(&flags.InputFile, "file", "", "Email to process, as JSON or a raw RFC 5322 message (demo email if omitted)")
	fs.StringVar(&flags.BatchDir, "batch", "", "Process every *.json email in this directory")
	fs.BoolVar(&flags.Interactive, "interactive", false, "Prompt for an email and a tone")
	fs.StringVar(&flags.ClearMemory, "clear-memory", "", "Forget a sender address, or \"all\"")

	// Output flags
	fs.StringVar(&flags.Output, "output", "output/result.json", "Result file for single email runs")
	fs.StringVar(&flags.OutputDir, "output-dir", "output", "Result directory for batch runs")

	// Pipeline flags
	fs.StringVar(&flags.Tone, "tone", "", "Reply tone (professional, friendly, formal, casual)")
	fs.BoolVar(&flags.NoMemory, "no-memory", false, "Do not save the interaction to sender memory")

	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "", "LLM provider (groq, openai, gemini, bedrock, openrouter)")
	fs.StringVar(&flags.ModelName, "model", "", "Model name for the selected provider")

	// Memory flags
	fs.StringVar(&flags.MemoryType, "memory-type", "", "Memory store (json, sqlite, mysql, memory)")
	fs.StringVar(&flags.MemoryPath, "memory-path", "", "JSON memory file")

	// General flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	fs.BoolVar(&flags.PrintSchema, "print-schema", false, "Print the JSON schema of the result document and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// Options converts the flags into CLI intake options
func (f *CLIFlags) Options() intake.CLIOptions {
	return intake.CLIOptions{
		InputFile:   f.InputFile,
		BatchDir:    f.BatchDir,
		Output:      f.Output,
		OutputDir:   f.OutputDir,
		Interactive: f.Interactive,
		ClearMemory: f.ClearMemory,
		Tone:        f.Tone,
		NoMemory:    f.NoMemory,
		Verbose:     f.Verbose,
	}
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.NewWithFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		applyFlagOverrides(cfg, flags)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideAssistant(container); err != nil {
		return nil, err
	}

	// Register CLI intake
	if err := container.Provide(func(f *factory.IntakeFactory, flags *CLIFlags) (*intake.CLIIntake, error) {
		return f.CreateCLIIntake(flags.Options())
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlagOverrides layers explicitly set command line flags over the configuration
func applyFlagOverrides(cfg *config.Config, flags *CLIFlags) {
	if flags.Provider != "" {
		cfg.Set("llm.provider", flags.Provider)
	}
	if flags.ModelName != "" {
		provider := cfg.GetString("llm.provider")
		if provider == "bedrock" {
			cfg.Set("bedrock.model_id", flags.ModelName)
		} else {
			cfg.Set(provider+".model_name", flags.ModelName)
		}
	}
	if flags.Tone != "" {
		cfg.Set("reply.tone", flags.Tone)
	}
	if flags.MemoryType != "" {
		cfg.Set("memory.type", flags.MemoryType)
	}
	if flags.MemoryPath != "" {
		cfg.Set("memory.path", flags.MemoryPath)
	}
}
