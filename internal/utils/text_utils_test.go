package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

func TestTruncateTextKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	tp := NewTextProcessor(zap.NewNop())
	text := strings.Repeat("é", 10) // 20 bytes

	got := tp.TruncateText(text, 5)
	if !strings.HasSuffix(got, truncationMarker) {
		t.Fatalf("missing truncation marker: %q", got)
	}
	head := strings.TrimSuffix(got, truncationMarker)
	if head != "éé" {
		t.Fatalf("head=%q, want %q", head, "éé")
	}
	if !utf8.ValidString(got) {
		t.Fatalf("result is not valid UTF-8")
	}
}

func TestTruncateTextNoLimit(t *testing.T) {
	t.Parallel()

	tp := NewTextProcessor(zap.NewNop())
	if got := tp.TruncateText("hello", 0); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := tp.TruncateText("hello", 5); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestProcessTextSanitizes(t *testing.T) {
	t.Parallel()

	tp := NewTextProcessor(zap.NewNop())
	got := tp.ProcessText("a\xffb\r\nc", 100)
	if got != "ab\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	if got := Preview("  short ", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Preview("abcdefgh", 3); got != "abc..." {
		t.Fatalf("got %q", got)
	}
}
