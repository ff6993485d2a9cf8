package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-email-assistant/internal/sender"
	"go.uber.org/zap"
)

// ServiceConfig holds the pipeline settings of the assistant
type ServiceConfig struct {
	Tone           Tone
	Parallel       bool
	SaveToMemory   bool
	ContextEntries int
}

// ProcessOptions overrides service settings for one invocation
type ProcessOptions struct {
	// Tone replaces the configured tone when set
	Tone Tone
	// SkipMemory leaves the persisted store untouched
	SkipMemory bool
}

// AssistantService is the core service that triages and answers emails
type AssistantService struct {
	classifier TextClassifier
	summarizer Summarizer
	replies    ReplyGenerator
	policy     *EscalationPolicy
	memory     MemoryRepository
	logger     *zap.Logger
	cfg        ServiceConfig
	now        func() time.Time
	newID      func() string

	// mu serializes load/process/save so concurrent callers do not
	// overwrite each other's interactions
	mu sync.Mutex
}

// NewAssistantService creates a new assistant service
func NewAssistantService(
	classifier TextClassifier,
	summarizer Summarizer,
	replies ReplyGenerator,
	policy *EscalationPolicy,
	memory MemoryRepository,
	logger *zap.Logger,
	cfg ServiceConfig,
) *AssistantService {
	if cfg.Tone == "" {
		cfg.Tone = ToneProfessional
	}
	return &AssistantService{
		classifier: classifier,
		summarizer: summarizer,
		replies:    replies,
		policy:     policy,
		memory:     memory,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// SetClock replaces the time source, used for deterministic timestamps
func (s *AssistantService) SetClock(now func() time.Time) {
	s.now = now
}

// Process runs one email through the pipeline: the memory store is loaded
// before processing and saved once afterwards. Any failure aborts the
// invocation without a partial result and without touching the store.
// Concurrent calls are processed one at a time.
func (s *AssistantService) Process(ctx context.Context, record *EmailRecord, opts ProcessOptions) (*ProcessingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.memory.Load(ctx)
	if err != nil {
		return nil, err
	}

	result, next, err := s.ProcessWithStore(ctx, store, record, opts)
	if err != nil {
		return nil, err
	}

	if s.cfg.SaveToMemory && !opts.SkipMemory {
		if err := s.memory.Save(ctx, next); err != nil {
			return nil, err
		}
		s.logger.Debug("Interaction saved", zap.String("sender", sender.Normalize(record.From)))
	}

	return result, nil
}

// ProcessWithStore runs the pipeline against an in-memory store and returns
// the result together with the updated store. The given store is not modified.
func (s *AssistantService) ProcessWithStore(
	ctx context.Context,
	store *MemoryStore,
	record *EmailRecord,
	opts ProcessOptions,
) (*ProcessingResult, *MemoryStore, error) {
	start := s.now()

	if record == nil {
		return nil, nil, NewValidationError("record", "email record is required")
	}
	if err := record.Validate(); err != nil {
		return nil, nil, err
	}

	tone := s.cfg.Tone
	if opts.Tone != "" {
		tone = opts.Tone
	}

	key := sender.Normalize(record.From)
	history := store.History(key)
	if len(history) == 0 {
		history = append([]HistoryEntry(nil), record.History...)
	}

	logger := s.logger.With(zap.String("sender", key), zap.String("tone", string(tone)))
	logger.Info("Processing email",
		zap.String("subject", record.Subject),
		zap.Int("prior_interactions", len(history)))

	cls, err := s.classifier.Classify(ctx, record.Body)
	if err != nil {
		return nil, nil, err
	}

	var summary, memoryContext string
	err = runPair(ctx, s.cfg.Parallel,
		func(ctx context.Context) error {
			var err error
			summary, err = s.summarizer.Summarize(ctx, record)
			return err
		},
		func(ctx context.Context) error {
			memoryContext = BuildMemoryContext(history, s.cfg.ContextEntries)
			return nil
		},
	)
	if err != nil {
		return nil, nil, err
	}

	reply, err := s.replies.Generate(ctx, &ReplyRequest{
		Record:         record,
		Classification: cls,
		Summary:        summary,
		History:        history,
		MemoryContext:  memoryContext,
		Tone:           tone,
	})
	if err != nil {
		return nil, nil, err
	}

	decision, err := s.policy.Decide(record, cls, history)
	if err != nil {
		return nil, nil, err
	}
	if decision.Escalate {
		logger.Info("Escalating email", zap.String("reason", decision.Reason))
	} else {
		logger.Info("No escalation needed")
	}

	processedAt := s.now()
	next, err := s.policy.RecordInteraction(store, key, HistoryEntry{
		Timestamp: FormatTimestamp(processedAt),
		Subject:   record.Subject,
		Intent:    cls.Intent,
		Sentiment: cls.Sentiment,
		Escalated: decision.Escalate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	elapsed := processedAt.Sub(start)
	logger.Info("Processing complete", zap.Duration("elapsed", elapsed))

	return &ProcessingResult{
		ID:                    s.newID(),
		Email:                 *record,
		Classification:        cls,
		Summary:               summary,
		Reply:                 reply,
		Escalation:            decision,
		ProcessedAt:           processedAt.UTC(),
		ProcessingTimeSeconds: elapsed.Seconds(),
	}, next, nil
}

// ClearMemory removes the sender's history, or everything when sender is empty
func (s *AssistantService) ClearMemory(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address == "" {
		s.logger.Info("Clearing all memory")
		return s.memory.Save(ctx, NewMemoryStore())
	}

	store, err := s.memory.Load(ctx)
	if err != nil {
		return err
	}
	key := sender.Normalize(address)
	if err := s.memory.Save(ctx, store.Forget(key)); err != nil {
		return err
	}
	s.logger.Info("Cleared memory for sender", zap.String("sender", key))
	return nil
}

// History returns the stored history of a sender
func (s *AssistantService) History(ctx context.Context, address string) ([]HistoryEntry, error) {
	store, err := s.memory.Load(ctx)
	if err != nil {
		return nil, err
	}
	return store.History(sender.Normalize(address)), nil
}
