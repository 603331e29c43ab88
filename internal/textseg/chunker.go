// Package textseg splits arbitrary text into byte-bounded, UTF-8-safe
// segments sized for the synthesis protocol's framing limits.
package textseg

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sanitize replaces control characters the service rejects with single
// spaces. It operates on whole runes, so multi-byte encodings are never
// split, and it is idempotent.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r <= 0x0008,
			r == 0x000B, r == 0x000C,
			r >= 0x000E && r <= 0x001F:
			return ' '
		}
		return r
	}, text)
}

// xmlEscaper covers the five XML predefined entities. A single-pass
// replacer never re-escapes its own output.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for embedding into an SSML document.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

// Split sanitizes text and cuts it into trimmed, non-empty chunks whose
// UTF-8 byte length does not exceed byteLimit. Cuts prefer the last
// whitespace that fits, back up over an unterminated XML entity so entities
// stay whole, and never land inside a multi-byte rune. The one exception to
// the limit is a single rune whose own encoding exceeds byteLimit: it is
// emitted as an oversized one-rune chunk rather than dropped.
func Split(text string, byteLimit int) ([]string, error) {
	if byteLimit <= 0 {
		return nil, fmt.Errorf("byte limit must be positive, got %d", byteLimit)
	}

	remaining := Sanitize(text)
	var chunks []string
	for len(remaining) > byteLimit {
		splitAt := 0
		lastSpace := -1
		for i, r := range remaining {
			size := utf8.RuneLen(r)
			if i+size > byteLimit {
				break
			}
			if unicode.IsSpace(r) {
				lastSpace = i
			}
			splitAt = i + size
		}
		if lastSpace >= 0 {
			splitAt = lastSpace
		}
		if amp := strings.LastIndex(remaining[:splitAt], "&"); amp >= 0 {
			if !strings.Contains(remaining[amp:splitAt], ";") {
				splitAt = amp
			}
		}
		if splitAt == 0 {
			if remaining == "" {
				break
			}
			// Even one rune does not fit, or the entity backup regressed to
			// the start. Force one rune of progress.
			_, size := utf8.DecodeRuneInString(remaining)
			splitAt = size
		}
		if chunk := strings.TrimSpace(remaining[:splitAt]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = remaining[splitAt:]
	}
	if chunk := strings.TrimSpace(remaining); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
