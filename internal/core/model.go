package core

import (
	"fmt"
	"strings"
	"time"
)

// Intent is the purpose of an email as labelled by the classifier
type Intent string

// Supported intents
const (
	IntentComplaint Intent = "complaint"
	IntentRequest   Intent = "request"
	IntentFeedback  Intent = "feedback"
	IntentInquiry   Intent = "inquiry"
)

// Intents lists every valid intent in prompt order
var Intents = []Intent{IntentComplaint, IntentRequest, IntentFeedback, IntentInquiry}

// Sentiment is the emotional tone of an email
type Sentiment string

// Supported sentiments
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists every valid sentiment in prompt order
var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

// ParseIntent converts a raw label into an Intent, rejecting anything outside the enum
func ParseIntent(raw string) (Intent, error) {
	label := Intent(normalizeLabel(raw))
	if label == "" {
		return "", NewValidationError("intent", "intent is required")
	}
	for _, intent := range Intents {
		if intent == label {
			return intent, nil
		}
	}
	return "", NewValidationError("intent", fmt.Sprintf("unknown intent %q", raw))
}

// ParseSentiment converts a raw label into a Sentiment, rejecting anything outside the enum
func ParseSentiment(raw string) (Sentiment, error) {
	label := Sentiment(normalizeLabel(raw))
	if label == "" {
		return "", NewValidationError("sentiment", "sentiment is required")
	}
	for _, sentiment := range Sentiments {
		if sentiment == label {
			return sentiment, nil
		}
	}
	return "", NewValidationError("sentiment", fmt.Sprintf("unknown sentiment %q", raw))
}

// Valid reports whether the intent is one of the canonical labels
func (i Intent) Valid() bool {
	for _, intent := range Intents {
		if intent == i {
			return true
		}
	}
	return false
}

// Valid reports whether the sentiment is one of the canonical labels
func (s Sentiment) Valid() bool {
	for _, sentiment := range Sentiments {
		if sentiment == s {
			return true
		}
	}
	return false
}

// checkLabels requires canonical intent and sentiment labels
func checkLabels(intent Intent, sentiment Sentiment) error {
	if intent == "" {
		return NewValidationError("intent", "intent is required")
	}
	if !intent.Valid() {
		return NewValidationError("intent", fmt.Sprintf("unknown intent %q", intent))
	}
	if sentiment == "" {
		return NewValidationError("sentiment", "sentiment is required")
	}
	if !sentiment.Valid() {
		return NewValidationError("sentiment", fmt.Sprintf("unknown sentiment %q", sentiment))
	}
	return nil
}

// normalizeLabel lowercases a model label and strips surrounding whitespace and punctuation
func normalizeLabel(raw string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(raw)), " \t\r\n.,;:!\"'`*")
}

// Tone is the style used when drafting a reply
type Tone string

// Supported tones
const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
)

// Tones lists every valid tone
var Tones = []Tone{ToneProfessional, ToneFriendly, ToneFormal, ToneCasual}

// ParseTone converts a raw tone name into a Tone
func ParseTone(raw string) (Tone, error) {
	tone := Tone(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range Tones {
		if t == tone {
			return t, nil
		}
	}
	return "", NewValidationError("tone", fmt.Sprintf("unknown tone %q", raw))
}

// EmailRecord represents an incoming email together with any history supplied by the caller
type EmailRecord struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	History []HistoryEntry `json:"history"`
}

// Validate checks the fields the pipeline depends on
func (r *EmailRecord) Validate() error {
	if strings.TrimSpace(r.From) == "" {
		return NewValidationError("from", "sender address is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return NewValidationError("body", "email body is required")
	}
	for i := range r.History {
		if err := r.History[i].Validate(); err != nil {
			return fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return nil
}

// HistoryEntry records one past interaction with a sender.
// Field order is the serialized order and must not change.
type HistoryEntry struct {
	Timestamp string    `json:"timestamp"`
	Subject   string    `json:"subject"`
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
	Escalated bool      `json:"escalated"`
}

// timestampLayouts are the ISO 8601 forms accepted for history timestamps
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an ISO 8601 history timestamp
func ParseTimestamp(ts string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO 8601 timestamp: %q", ts)
}

// FormatTimestamp renders a time the way new history entries store it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Validate rejects entries with missing or unknown labels or a malformed timestamp
func (e *HistoryEntry) Validate() error {
	if err := checkLabels(e.Intent, e.Sentiment); err != nil {
		return err
	}
	if _, err := ParseTimestamp(e.Timestamp); err != nil {
		return NewValidationError("timestamp", err.Error())
	}
	return nil
}

// Classification is the combined output of intent and sentiment analysis
type Classification struct {
	Intent    Intent    `json:"intent"`
	Sentiment Sentiment `json:"sentiment"`
}

// Validate checks both labels belong to their enums
func (c Classification) Validate() error {
	return checkLabels(c.Intent, c.Sentiment)
}

// EscalationDecision says whether a human should handle the email and why
type EscalationDecision struct {
	Escalate bool   `json:"escalate"`
	Reason   string `json:"reason,omitempty"`
}

// Reply is a drafted response to an email
type Reply struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    Tone   `json:"tone"`
}

// ProcessingResult is the outward-facing document produced for each email
type ProcessingResult struct {
	ID                    string             `json:"id"`
	Email                 EmailRecord        `json:"email"`
	Classification        Classification     `json:"classification"`
	Summary               string             `json:"summary"`
	Reply                 Reply              `json:"reply"`
	Escalation            EscalationDecision `json:"escalation"`
	ProcessedAt           time.Time          `json:"processed_at"`
	ProcessingTimeSeconds float64            `json:"processing_time_seconds"`
}
