// Package srt turns boundary metadata from a synthesis stream into SubRip
// subtitles. Offsets and durations are the protocol's 100-nanosecond ticks.
package srt

import (
	"fmt"
	"strings"
	"time"
)

// Cue is one rendered subtitle entry.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type word struct {
	start time.Duration
	end   time.Duration
	text  string
}

// Maker accumulates word boundaries and merges them into cues.
type Maker struct {
	wordsPerCue int
	words       []word
}

// NewMaker returns a Maker that merges wordsPerCue words into each cue.
func NewMaker(wordsPerCue int) *Maker {
	if wordsPerCue <= 0 {
		wordsPerCue = 10
	}
	return &Maker{wordsPerCue: wordsPerCue}
}

// Feed records one boundary event.
func (m *Maker) Feed(offsetTicks, durationTicks int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	m.words = append(m.words, word{
		start: ticksToDuration(offsetTicks),
		end:   ticksToDuration(offsetTicks + durationTicks),
		text:  text,
	})
}

// Cues groups the fed words into subtitle entries in feed order.
func (m *Maker) Cues() []Cue {
	var cues []Cue
	for i := 0; i < len(m.words); i += m.wordsPerCue {
		group := m.words[i:min(i+m.wordsPerCue, len(m.words))]
		texts := make([]string, len(group))
		for j, w := range group {
			texts[j] = w.text
		}
		cues = append(cues, Cue{
			Start: group[0].start,
			End:   group[len(group)-1].end,
			Text:  strings.Join(texts, " "),
		})
	}
	return cues
}

// Render produces the SubRip document for everything fed so far.
func (m *Maker) Render() string {
	var b strings.Builder
	for i, cue := range m.Cues() {
		fmt.Fprintf(&b, "%d\r\n%s --> %s\r\n%s\r\n\r\n",
			i+1, formatTimestamp(cue.Start), formatTimestamp(cue.End), cue.Text)
	}
	return b.String()
}

func ticksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

func formatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
