package genai

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClampReplyShortTextUnchanged(t *testing.T) {
	if got := ClampReply("Hello there"); got != "Hello there" {
		t.Errorf("got %q", got)
	}
}

func TestClampReplyTruncatesLines(t *testing.T) {
	got := ClampReply("one\ntwo\nthree\nfour")
	if strings.Count(got, "\n") != MaxReplyLines-1 {
		t.Errorf("got %d lines, want %d: %q", strings.Count(got, "\n")+1, MaxReplyLines, got)
	}
}

func TestClampReplyTruncatesLength(t *testing.T) {
	got := ClampReply(strings.Repeat("a", MaxReplyLength*2))
	if len(got) != MaxReplyLength {
		t.Errorf("got len %d, want %d", len(got), MaxReplyLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated reply should end with ellipsis: %q", got)
	}
}

func TestClampReplyKeepsMultiByteRunesIntact(t *testing.T) {
	got := ClampReply(strings.Repeat("नमस्ते", MaxReplyLength))
	if !utf8.ValidString(got) {
		t.Errorf("clipped reply is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxReplyLength {
		t.Errorf("got %d runes, want %d", n, MaxReplyLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated reply should end with ellipsis: %q", got)
	}
}

func TestNoopResponder(t *testing.T) {
	reply, err := NoopResponder{}.Respond(context.Background(), "anything", SessionSummary{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != FallbackReply {
		t.Errorf("got %q, want the fixed fallback reply", reply)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("expected error when no API key is configured")
	}
}
