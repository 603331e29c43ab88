package srt

import (
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "00:00:00,000"},
		{"millis", 1500 * time.Millisecond, "00:00:01,500"},
		{"hours", time.Hour + 2*time.Minute + 3*time.Second + 45*time.Millisecond, "01:02:03,045"},
		{"negative clamps", -time.Second, "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.d); got != tt.want {
				t.Fatalf("formatTimestamp(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestMaker_GroupsWords(t *testing.T) {
	m := NewMaker(2)
	// 10_000_000 ticks = 1s
	m.Feed(0, 5_000_000, "hello")
	m.Feed(5_000_000, 5_000_000, "there")
	m.Feed(10_000_000, 10_000_000, "world")

	cues := m.Cues()
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Text != "hello there" {
		t.Fatalf("cue 0 text = %q", cues[0].Text)
	}
	if cues[0].Start != 0 || cues[0].End != time.Second {
		t.Fatalf("cue 0 span = %v..%v", cues[0].Start, cues[0].End)
	}
	if cues[1].Text != "world" {
		t.Fatalf("cue 1 text = %q", cues[1].Text)
	}
	if cues[1].Start != time.Second || cues[1].End != 2*time.Second {
		t.Fatalf("cue 1 span = %v..%v", cues[1].Start, cues[1].End)
	}
}

func TestMaker_SkipsEmptyText(t *testing.T) {
	m := NewMaker(5)
	m.Feed(0, 1000, "  ")
	if len(m.Cues()) != 0 {
		t.Fatalf("blank boundary text must not produce cues")
	}
}

func TestRender(t *testing.T) {
	m := NewMaker(2)
	m.Feed(0, 5_000_000, "hello")
	m.Feed(5_000_000, 5_000_000, "there")

	got := m.Render()
	want := "1\r\n00:00:00,000 --> 00:00:01,000\r\nhello there\r\n\r\n"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
	if !strings.HasSuffix(got, "\r\n\r\n") {
		t.Fatalf("SRT blocks must end with a blank line")
	}
}
