package output

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateRuneSafety(t *testing.T) {
	// CJK characters are 3 bytes each in UTF-8.
	input := strings.Repeat("日本語", 100) // 300 runes, 900 bytes
	result := truncate(input, 10)

	if !utf8.ValidString(result) {
		t.Fatal("truncated string is not valid UTF-8")
	}
	// 10 runes + "..."
	if utf8.RuneCountInString(result) != 13 {
		t.Fatalf("expected 13 runes (10 + ...), got %d", utf8.RuneCountInString(result))
	}
	if !strings.HasSuffix(result, "...") {
		t.Fatal("expected ... suffix")
	}
}

func TestTruncateEmoji(t *testing.T) {
	input := strings.Repeat("🔥", 50) // 50 runes, 200 bytes
	result := truncate(input, 5)

	if !utf8.ValidString(result) {
		t.Fatal("truncated string is not valid UTF-8")
	}
	if utf8.RuneCountInString(result) != 8 { // 5 + "..."
		t.Fatalf("expected 8 runes, got %d", utf8.RuneCountInString(result))
	}
}

func TestTruncateASCII(t *testing.T) {
	result := truncate("you are the best person ever", 11)
	if result != "you are the..." {
		t.Fatalf("expected 'you are the...', got %q", result)
	}
}

func TestTruncateShortInput(t *testing.T) {
	if result := truncate("short", 100); result != "short" {
		t.Fatalf("expected unchanged input, got %q", result)
	}
}

func TestTruncateExactLength(t *testing.T) {
	if result := truncate("exact", 5); result != "exact" {
		t.Fatalf("expected unchanged input, got %q", result)
	}
}

func TestStandardTruncatesLongText(t *testing.T) {
	v := baseVerdict()
	v.Text = strings.Repeat("a", StandardTextLimit+50)

	if got := FormatVerdict(v, Standard).Text; utf8.RuneCountInString(got) != StandardTextLimit+3 {
		t.Errorf("standard text has %d runes, want %d", utf8.RuneCountInString(got), StandardTextLimit+3)
	}
	if got := FormatVerdict(v, Full).Text; got != v.Text {
		t.Error("full verbosity must keep the complete text")
	}
}
