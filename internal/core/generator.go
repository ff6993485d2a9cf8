package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-email-assistant/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// firstInteractionContext is the memory context for a sender with no history
const firstInteractionContext = "This is the first interaction with this customer."

// ReplyRequest carries everything the reply generator needs
type ReplyRequest struct {
	Record         *EmailRecord
	Classification Classification
	Summary        string
	History        []HistoryEntry
	MemoryContext  string
	Tone           Tone
}

// LLMSummarizer condenses an email with a single model call
type LLMSummarizer struct {
	llmClient     LLMClient
	textProcessor *utils.TextProcessor
	maxBodySize   int
	logger        *zap.Logger
}

// NewLLMSummarizer creates a summarizer backed by an LLM client
func NewLLMSummarizer(llmClient LLMClient, textProcessor *utils.TextProcessor, maxBodySize int, logger *zap.Logger) *LLMSummarizer {
	return &LLMSummarizer{
		llmClient:     llmClient,
		textProcessor: textProcessor,
		maxBodySize:   maxBodySize,
		logger:        logger,
	}
}

// Summarize returns a two to three sentence summary of the email
func (s *LLMSummarizer) Summarize(ctx context.Context, record *EmailRecord) (string, error) {
	body := s.textProcessor.ProcessText(record.Body, s.maxBodySize)
	summary, err := s.llmClient.Complete(ctx, summaryPrompt(record.Subject, body))
	if err != nil {
		return "", fmt.Errorf("%w: summarize: %v", ErrGeneration, err)
	}
	summary = strings.TrimSpace(summary)
	s.logger.Debug("Summary generated", zap.String("summary", utils.Preview(summary, 80)))
	return summary, nil
}

// LLMReplyGenerator drafts replies with a single model call
type LLMReplyGenerator struct {
	llmClient LLMClient
	logger    *zap.Logger
}

// NewLLMReplyGenerator creates a reply generator backed by an LLM client
func NewLLMReplyGenerator(llmClient LLMClient, logger *zap.Logger) *LLMReplyGenerator {
	return &LLMReplyGenerator{
		llmClient: llmClient,
		logger:    logger,
	}
}

// Generate drafts a reply addressed back to the sender
func (g *LLMReplyGenerator) Generate(ctx context.Context, req *ReplyRequest) (Reply, error) {
	content, err := g.llmClient.Complete(ctx, replyPrompt(req))
	if err != nil {
		return Reply{}, fmt.Errorf("%w: generate reply: %v", ErrGeneration, err)
	}

	subject, body := ParseReply(content, req.Record.Subject)
	g.logger.Info("Reply generated",
		zap.String("intent", string(req.Classification.Intent)),
		zap.String("tone", string(req.Tone)))

	return Reply{
		From:    req.Record.To,
		To:      req.Record.From,
		Subject: subject,
		Body:    body,
		Tone:    req.Tone,
	}, nil
}

// ParseReply splits model output of the form "Subject: ...\nBody: ..." into its parts.
// Output without a subject line keeps the whole text as the body and answers under "Re: <original>".
func ParseReply(content, originalSubject string) (subject, body string) {
	content = strings.TrimSpace(content)
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "Subject:") {
			continue
		}
		subject = strings.TrimSpace(strings.TrimPrefix(trimmed, "Subject:"))
		rest := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if idx := strings.Index(rest, "Body:"); idx >= 0 {
			body = strings.TrimSpace(rest[idx+len("Body:"):])
		} else {
			body = rest
		}
		break
	}

	if subject == "" {
		subject = replySubject(originalSubject)
	}
	if body == "" {
		body = content
	}
	return subject, body
}

// replySubject prefixes "Re: " unless the subject already has it
func replySubject(original string) string {
	original = strings.TrimSpace(original)
	if strings.HasPrefix(strings.ToLower(original), "re:") {
		return original
	}
	return "Re: " + original
}

// SenderName derives a greeting name from the local part of an address,
// e.g. "sarah.connor@example.com" becomes "Sarah Connor"
func SenderName(address string) string {
	local := address
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	if lt := strings.LastIndex(local, "<"); lt >= 0 {
		local = local[lt+1:]
	}
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(words) == 0 {
		return "Customer"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// BuildMemoryContext renders the sender's history for the reply prompt,
// listing at most limit of the most recent entries
func BuildMemoryContext(history []HistoryEntry, limit int) string {
	if len(history) == 0 {
		return firstInteractionContext
	}

	recent := history
	if limit > 0 && len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Customer has contacted us %d time(s) before:", len(history))
	for i, entry := range recent {
		fmt.Fprintf(&sb, "\n%d. [%s] Intent: %s, Sentiment: %s, Escalated: %t\n   Subject: %s",
			i+1, entry.Timestamp, entry.Intent, entry.Sentiment, entry.Escalated, entry.Subject)
	}
	return sb.String()
}
