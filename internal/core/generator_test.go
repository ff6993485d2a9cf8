package core

import (
	"strings"
	"testing"
)

func TestParseReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		original    string
		wantSubject string
		wantBody    string
	}{
		{
			name:        "subject and body",
			content:     "Subject: Re: Your order\nBody: Hi Sarah,\nWe are on it.",
			original:    "Your order",
			wantSubject: "Re: Your order",
			wantBody:    "Hi Sarah,\nWe are on it.",
		},
		{
			name:        "subject without body marker",
			content:     "Subject: Update\n\nHi Sarah,\nThanks.",
			original:    "Question",
			wantSubject: "Update",
			wantBody:    "Hi Sarah,\nThanks.",
		},
		{
			name:        "plain text",
			content:     "Hi Sarah,\nThanks for writing.",
			original:    "Question",
			wantSubject: "Re: Question",
			wantBody:    "Hi Sarah,\nThanks for writing.",
		},
		{
			name:        "existing re prefix",
			content:     "Thanks.",
			original:    "RE: Question",
			wantSubject: "RE: Question",
			wantBody:    "Thanks.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			subject, body := ParseReply(tc.content, tc.original)
			if subject != tc.wantSubject {
				t.Errorf("subject=%q, want %q", subject, tc.wantSubject)
			}
			if body != tc.wantBody {
				t.Errorf("body=%q, want %q", body, tc.wantBody)
			}
		})
	}
}

func TestSenderName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"sarah.connor@example.com":     "Sarah Connor",
		"Jane Doe <john_smith@x.org>":  "John Smith",
		"bob@example.com":              "Bob",
		"@example.com":                 "Customer",
		"mary-jane+support@example.io": "Mary Jane Support",
	}
	for in, want := range cases {
		if got := SenderName(in); got != want {
			t.Errorf("SenderName(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestBuildMemoryContext(t *testing.T) {
	t.Parallel()

	if got := BuildMemoryContext(nil, 3); got != firstInteractionContext {
		t.Fatalf("got %q", got)
	}

	got := BuildMemoryContext(historyOf(5), 3)
	if !strings.HasPrefix(got, "Customer has contacted us 5 time(s) before:") {
		t.Fatalf("unexpected header: %q", got)
	}
	if strings.Contains(got, "subject 2") || !strings.Contains(got, "subject 3") || !strings.Contains(got, "subject 5") {
		t.Fatalf("expected only the 3 most recent entries: %q", got)
	}
	if !strings.Contains(got, "1. [2024-01-03T10:00:00Z] Intent: inquiry, Sentiment: neutral, Escalated: false") {
		t.Fatalf("unexpected entry format: %q", got)
	}
}

func TestToneInstructionFallback(t *testing.T) {
	t.Parallel()

	if got := ToneInstruction(IntentComplaint, ToneFriendly); got == "" || got == fallbackToneInstruction {
		t.Fatalf("expected a specific instruction, got %q", got)
	}
	if got := ToneInstruction(Intent("other"), ToneFriendly); got != fallbackToneInstruction {
		t.Fatalf("got %q", got)
	}
}
