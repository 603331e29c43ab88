// Package wire implements the frame codec for the read-aloud websocket
// protocol: header-block text frames and length-prefixed binary frames.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Frame is one parsed protocol message: a header map plus an opaque payload.
type Frame struct {
	Headers map[string]string
	Payload []byte
}

var (
	ErrMalformedText   = errors.New("malformed text frame")
	ErrMalformedBinary = errors.New("malformed binary frame")
)

var headerSeparator = []byte("\r\n\r\n")

// ParseText splits a text frame into its header block and payload. The two
// are separated on the wire by a blank line (CR LF CR LF).
func ParseText(data []byte) (Frame, error) {
	head, payload, found := bytes.Cut(data, headerSeparator)
	if !found {
		return Frame{}, fmt.Errorf("%w: missing header separator", ErrMalformedText)
	}
	return Frame{Headers: parseHeaders(head), Payload: payload}, nil
}

// ParseBinary decodes the length-prefixed binary frame shape: a 2-byte
// big-endian header length, that many header bytes, then the payload.
func ParseBinary(data []byte) (Frame, error) {
	if len(data) < 2 {
		return Frame{}, fmt.Errorf("%w: missing header length prefix", ErrMalformedBinary)
	}
	headerLen := int(binary.BigEndian.Uint16(data[:2]))
	if 2+headerLen > len(data) {
		return Frame{}, fmt.Errorf("%w: header length %d exceeds frame size %d", ErrMalformedBinary, headerLen, len(data))
	}
	return Frame{
		Headers: parseHeaders(data[2 : 2+headerLen]),
		Payload: data[2+headerLen:],
	}, nil
}

func parseHeaders(block []byte) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(string(block), "\r\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}

// Header is one outgoing header line. Order is preserved on the wire.
type Header struct {
	Key   string
	Value string
}

// MarshalText renders an outgoing text frame: CRLF-terminated header lines,
// a blank line, then the body.
func MarshalText(headers []Header, body string) []byte {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h.Key)
		b.WriteString(":")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Timestamp renders a wall-clock instant the way the service expects it in
// X-Timestamp headers.
func Timestamp(t time.Time) string {
	return t.UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}
