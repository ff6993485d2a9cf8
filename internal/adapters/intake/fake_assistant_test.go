package intake

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
)

// fakeAssistant records calls and answers with a canned result
type fakeAssistant struct {
	mu       sync.Mutex
	records  []core.EmailRecord
	opts     []core.ProcessOptions
	cleared  []string
	failFrom map[string]error
	escalate bool
}

func (f *fakeAssistant) Process(_ context.Context, record *core.EmailRecord, opts core.ProcessOptions) (*core.ProcessingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	f.opts = append(f.opts, opts)
	if err, ok := f.failFrom[record.From]; ok {
		return nil, err
	}

	tone := opts.Tone
	if tone == "" {
		tone = core.ToneProfessional
	}
	decision := core.EscalationDecision{}
	if f.escalate {
		decision = core.EscalationDecision{Escalate: true, Reason: "urgent keywords detected: refund"}
	}
	return &core.ProcessingResult{
		ID:             "result-1",
		Email:          *record,
		Classification: core.Classification{Intent: core.IntentComplaint, Sentiment: core.SentimentNegative},
		Summary:        "Customer cannot pay.",
		Reply: core.Reply{
			From:    record.To,
			To:      record.From,
			Subject: "Re: " + record.Subject,
			Body:    "Dear Customer,\nWe are looking into it.",
			Tone:    tone,
		},
		Escalation:            decision,
		ProcessedAt:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		ProcessingTimeSeconds: 1.234,
	}, nil
}

func (f *fakeAssistant) ClearMemory(_ context.Context, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, address)
	return nil
}

func (f *fakeAssistant) processed() []core.EmailRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.EmailRecord(nil), f.records...)
}
