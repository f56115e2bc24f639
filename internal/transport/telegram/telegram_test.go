package telegram

import (
	"strings"
	"testing"

	"github.com/tmichela/dana/pkg/logx"
)

func TestSplitTextShort(t *testing.T) {
	t.Parallel()

	if got := splitText("hello", 10); len(got) != 1 || got[0] != "hello" {
		t.Errorf("splitText = %v", got)
	}
	if got := splitText("", 10); len(got) != 1 || got[0] != "" {
		t.Errorf("splitText empty = %v", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 30) + "\n" + strings.Repeat("y", 30)
	got := splitText(text, 40)
	if len(got) != 2 {
		t.Fatalf("splitText = %d chunks: %q", len(got), got)
	}
	if got[0] != strings.Repeat("x", 30) {
		t.Errorf("first chunk = %q, want break at the newline", got[0])
	}
	if got[1] != strings.Repeat("y", 30) {
		t.Errorf("second chunk = %q", got[1])
	}
}

func TestSplitTextHardBreak(t *testing.T) {
	t.Parallel()

	// No newline anywhere: chunks cut at the limit.
	text := strings.Repeat("a", 100)
	got := splitText(text, 40)
	if len(got) != 3 {
		t.Fatalf("splitText = %d chunks", len(got))
	}
	for i, chunk := range got {
		if len(chunk) > 40 {
			t.Errorf("chunk %d exceeds limit: %d runes", i, len(chunk))
		}
	}
	if strings.Join(got, "") != text {
		t.Error("chunks do not reassemble the input")
	}
}

func TestSplitTextIgnoresEarlyNewline(t *testing.T) {
	t.Parallel()

	// A newline near the chunk start would produce a tiny fragment; the
	// splitter cuts at the limit instead.
	text := "ab\n" + strings.Repeat("c", 60)
	got := splitText(text, 40)
	if len(got) < 2 {
		t.Fatalf("splitText = %v", got)
	}
	if len(got[0]) < 40/3 {
		t.Errorf("first chunk too small: %q", got[0])
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Error("empty token accepted")
	}
}
