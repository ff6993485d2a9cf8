package core

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Default policy settings
const (
	DefaultRepeatThreshold  = 2
	DefaultMaxHistoryLength = 5
)

// DefaultEscalationKeywords are checked against the email body when none are configured
var DefaultEscalationKeywords = []string{"urgent", "immediately", "refund", "terrible"}

// reasonSeparator joins the reasons of every rule that fired
const reasonSeparator = "; "

// PolicyConfig holds the tunables of the escalation and memory policy
type PolicyConfig struct {
	RepeatThreshold  int
	Keywords         []string
	MaxHistoryLength int
}

// DefaultPolicyConfig returns the stock policy settings
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		RepeatThreshold:  DefaultRepeatThreshold,
		Keywords:         append([]string(nil), DefaultEscalationKeywords...),
		MaxHistoryLength: DefaultMaxHistoryLength,
	}
}

// EscalationPolicy decides when an email goes to a human and how sender history is kept
type EscalationPolicy struct {
	repeatThreshold  int
	keywords         []string
	maxHistoryLength int
}

// NewEscalationPolicy validates the configuration and creates a policy.
// Keywords are case-folded; keywords that fold to the same text are kept once, first one wins.
func NewEscalationPolicy(cfg PolicyConfig) (*EscalationPolicy, error) {
	if cfg.RepeatThreshold < 1 {
		return nil, NewValidationError("repeat_threshold", fmt.Sprintf("must be at least 1, got %d", cfg.RepeatThreshold))
	}
	if cfg.MaxHistoryLength < 1 {
		return nil, NewValidationError("max_history_length", fmt.Sprintf("must be at least 1, got %d", cfg.MaxHistoryLength))
	}

	fold := cases.Fold()
	seen := make(map[string]bool, len(cfg.Keywords))
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		folded := fold.String(strings.TrimSpace(kw))
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		keywords = append(keywords, folded)
	}
	if len(keywords) == 0 {
		return nil, NewValidationError("escalation_keywords", "at least one non-blank keyword is required")
	}

	return &EscalationPolicy{
		repeatThreshold:  cfg.RepeatThreshold,
		keywords:         keywords,
		maxHistoryLength: cfg.MaxHistoryLength,
	}, nil
}

// MaxHistoryLength returns the number of entries kept per sender
func (p *EscalationPolicy) MaxHistoryLength() int {
	return p.maxHistoryLength
}

// Keywords returns the folded escalation keywords in configured order
func (p *EscalationPolicy) Keywords() []string {
	return append([]string(nil), p.keywords...)
}

// Decide evaluates the repeat-customer, keyword and sentiment rules in that order.
// It has no side effects; equal inputs always produce an identical reason string.
func (p *EscalationPolicy) Decide(record *EmailRecord, cls Classification, history []HistoryEntry) (EscalationDecision, error) {
	if record == nil {
		return EscalationDecision{}, NewValidationError("record", "email record is required")
	}
	if err := record.Validate(); err != nil {
		return EscalationDecision{}, err
	}
	if err := cls.Validate(); err != nil {
		return EscalationDecision{}, err
	}
	for i := range history {
		if err := history[i].Validate(); err != nil {
			return EscalationDecision{}, fmt.Errorf("history[%d]: %w", i, err)
		}
	}

	var reasons []string

	if len(history) >= p.repeatThreshold {
		reasons = append(reasons, fmt.Sprintf("repeat customer: %d prior interactions", len(history)))
	}

	if matched := p.matchKeywords(record.Body); len(matched) > 0 {
		reasons = append(reasons, "urgent keywords detected: "+strings.Join(matched, ", "))
	}

	if cls.Sentiment == SentimentNegative && cls.Intent == IntentComplaint {
		reasons = append(reasons, "negative complaint sentiment")
	}

	if len(reasons) == 0 {
		return EscalationDecision{}, nil
	}
	return EscalationDecision{
		Escalate: true,
		Reason:   strings.Join(reasons, reasonSeparator),
	}, nil
}

// matchKeywords returns each keyword found in the body once, ordered by first occurrence.
// Keywords starting at the same position keep their configured order.
func (p *EscalationPolicy) matchKeywords(body string) []string {
	folded := cases.Fold().String(body)

	type hit struct {
		keyword string
		pos     int
	}
	var hits []hit
	for _, kw := range p.keywords {
		if pos := strings.Index(folded, kw); pos >= 0 {
			hits = append(hits, hit{keyword: kw, pos: pos})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].pos < hits[j].pos
	})

	matched := make([]string, len(hits))
	for i, h := range hits {
		matched[i] = h.keyword
	}
	return matched
}

// RecordInteraction appends entry to the sender's history and drops the oldest
// entries beyond the configured maximum. The input store is left unchanged;
// callers must use the returned store.
func (p *EscalationPolicy) RecordInteraction(store *MemoryStore, sender string, entry HistoryEntry) (*MemoryStore, error) {
	if strings.TrimSpace(sender) == "" {
		return nil, NewValidationError("sender", "sender address is required")
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	history := store.History(sender)
	history = append(history, entry)
	if overflow := len(history) - p.maxHistoryLength; overflow > 0 {
		history = append([]HistoryEntry(nil), history[overflow:]...)
	}

	return store.withHistory(sender, history), nil
}
