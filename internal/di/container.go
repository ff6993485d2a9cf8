package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/config"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/factory"
	"github.com/mikey/llm-email-assistant/internal/logging"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"github.com/mikey/llm-email-assistant/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the SMTP server
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.NewWithFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideAssistant(container); err != nil {
		return nil, err
	}

	// Register email intake
	if err := container.Provide(func(f *factory.IntakeFactory) (ports.EmailIntake, error) {
		return f.CreateEmailIntake()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAssistant registers everything from the text processor up to the
// assistant service. Config and logger must already be registered.
func provideAssistant(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewMemoryFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewIntakeFactory); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return err
	}

	// Register memory repository
	if err := container.Provide(func(f *factory.MemoryFactory) (core.MemoryRepository, error) {
		return f.CreateMemoryRepository()
	}); err != nil {
		return err
	}

	// Register escalation policy
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*core.EscalationPolicy, error) {
		policyCfg := cfg.GetEscalation()
		logger.Info("Loaded escalation policy",
			zap.Int("repeat_threshold", policyCfg.RepeatThreshold),
			zap.Strings("keywords", policyCfg.Keywords),
			zap.Int("max_history_length", policyCfg.MaxHistoryLength))
		return core.NewEscalationPolicy(policyCfg)
	}); err != nil {
		return err
	}

	// Register pipeline collaborators
	if err := container.Provide(func(
		llmClient core.LLMClient,
		textProcessor *utils.TextProcessor,
		f *factory.LLMFactory,
		cfg *config.Config,
		logger *zap.Logger,
	) core.TextClassifier {
		return core.NewLLMTextClassifier(llmClient, textProcessor, f.MaxBodySize(), cfg.GetPipeline().Parallel, logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(
		llmClient core.LLMClient,
		textProcessor *utils.TextProcessor,
		f *factory.LLMFactory,
		logger *zap.Logger,
	) core.Summarizer {
		return core.NewLLMSummarizer(llmClient, textProcessor, f.MaxBodySize(), logger)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(llmClient core.LLMClient, logger *zap.Logger) core.ReplyGenerator {
		return core.NewLLMReplyGenerator(llmClient, logger)
	}); err != nil {
		return err
	}

	// Register assistant service
	if err := container.Provide(func(
		classifier core.TextClassifier,
		summarizer core.Summarizer,
		replies core.ReplyGenerator,
		policy *core.EscalationPolicy,
		memory core.MemoryRepository,
		cfg *config.Config,
		logger *zap.Logger,
	) (*core.AssistantService, error) {
		pipeline := cfg.GetPipeline()
		tone, err := core.ParseTone(pipeline.Tone)
		if err != nil {
			return nil, err
		}
		return core.NewAssistantService(classifier, summarizer, replies, policy, memory, logger, core.ServiceConfig{
			Tone:           tone,
			Parallel:       pipeline.Parallel,
			SaveToMemory:   pipeline.SaveToMemory,
			ContextEntries: pipeline.ContextEntries,
		}), nil
	}); err != nil {
		return err
	}

	return container.Provide(func(s *core.AssistantService) ports.Assistant {
		return s
	})
}

// Release closes resources held by the LLM client and memory repository
func Release(logger *zap.Logger, llmClient core.LLMClient, repo core.MemoryRepository) {
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	if stopper, ok := repo.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}
