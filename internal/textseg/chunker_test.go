package textseg

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_RejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1, -4096} {
		if _, err := Split("hello", limit); err == nil {
			t.Fatalf("Split with limit %d should fail", limit)
		}
	}
}

func TestSplit_RepeatedPhrase(t *testing.T) {
	input := strings.Repeat("hello ", 50)
	chunks, err := Split(input, 32)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected chunks, got none")
	}
	for i, chunk := range chunks {
		if len(chunk) > 32 {
			t.Fatalf("chunk %d is %d bytes, exceeds limit 32: %q", i, len(chunk), chunk)
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Fatalf("chunk %d not trimmed: %q", i, chunk)
		}
	}
	joined := strings.Join(chunks, " ")
	if joined != strings.TrimSpace(input) {
		t.Fatalf("chunks do not reconstruct input:\n got %q\nwant %q", joined, strings.TrimSpace(input))
	}
}

func TestSplit_MultiByteBoundarySafety(t *testing.T) {
	input := strings.Repeat("你好", 10) // 3 bytes per rune, no whitespace
	chunks, err := Split(input, 7)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, chunk)
		}
		if len(chunk) > 7 {
			t.Fatalf("chunk %d is %d bytes, exceeds limit 7", i, len(chunk))
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != input {
		t.Fatalf("chunks do not reconstruct input")
	}
}

func TestSplit_EntityStaysWhole(t *testing.T) {
	tests := []struct {
		name  string
		input string
		limit int
	}{
		{"entity between words", "aaaa bbbb &amp; cccc dddd eeee", 12},
		{"cut would land inside entity", "aaaaaaaa&amp;bb", 10},
		{"entity at chunk edge", "aaaa &amp;bbbb cccc", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(tt.input, tt.limit)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			for i, chunk := range chunks {
				if strings.Contains(chunk, "&") && !strings.Contains(chunk, "&amp;") {
					t.Fatalf("chunk %d truncated the entity: %q (all: %q)", i, chunk, chunks)
				}
			}
		})
	}
}

func TestSplit_SingleOversizedRune(t *testing.T) {
	chunks, err := Split("你", 2) // 3-byte rune, 2-byte limit
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "你" {
		t.Fatalf("expected the oversized rune as one chunk, got %q", chunks)
	}
}

func TestSplit_ShortInputPassesThrough(t *testing.T) {
	chunks, err := Split("  hi there  ", 4096)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "hi there" {
		t.Fatalf("expected single trimmed chunk, got %q", chunks)
	}
}

func TestSplit_WhitespaceOnly(t *testing.T) {
	chunks, err := Split(" \t\n ", 8)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %q", chunks)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"null and bell", "a\x00b\x07c", "a b c"},
		{"vertical tab and form feed", "a\vb\fc", "a b c"},
		{"keeps tab newline cr", "a\tb\nc\rd", "a\tb\nc\rd"},
		{"unit separators", "a\x1eb\x1fc", "a b c"},
		{"multi-byte untouched", "你好，世界", "你好，世界"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	input := "a\x00b\x1fc with 你好"
	once := Sanitize(input)
	if twice := Sanitize(once); twice != once {
		t.Fatalf("Sanitize not idempotent: %q vs %q", once, twice)
	}
}

func TestEscapeXML(t *testing.T) {
	got := EscapeXML(`<a href="x">Tom & Jerry's</a>`)
	want := "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&apos;s&lt;/a&gt;"
	if got != want {
		t.Fatalf("EscapeXML = %q, want %q", got, want)
	}
}
