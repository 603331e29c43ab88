package wire

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestParseText(t *testing.T) {
	data := []byte("X-RequestId:abc123\r\nPath:turn.start\r\n\r\n{\"context\":{}}")
	frame, err := ParseText(data)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if frame.Headers["Path"] != "turn.start" {
		t.Fatalf("Path = %q, want turn.start", frame.Headers["Path"])
	}
	if frame.Headers["X-RequestId"] != "abc123" {
		t.Fatalf("X-RequestId = %q", frame.Headers["X-RequestId"])
	}
	if string(frame.Payload) != `{"context":{}}` {
		t.Fatalf("payload = %q", frame.Payload)
	}
}

func TestParseText_PayloadMayContainSeparator(t *testing.T) {
	data := []byte("Path:response\r\n\r\nbody\r\n\r\nmore")
	frame, err := ParseText(data)
	if err != nil {
		t.Fatalf("ParseText() error = %v", err)
	}
	if string(frame.Payload) != "body\r\n\r\nmore" {
		t.Fatalf("payload = %q, split must stop at the first separator", frame.Payload)
	}
}

func TestParseText_MissingSeparator(t *testing.T) {
	if _, err := ParseText([]byte("Path:turn.start\r\n")); !errors.Is(err, ErrMalformedText) {
		t.Fatalf("error = %v, want ErrMalformedText", err)
	}
}

func TestParseBinary(t *testing.T) {
	header := []byte("X-RequestId:abc\r\nPath:audio\r\nContent-Type:audio/mpeg")
	payload := []byte{0xff, 0xf3, 0x01, 0x02}
	data := append([]byte{byte(len(header) >> 8), byte(len(header))}, header...)
	data = append(data, payload...)

	frame, err := ParseBinary(data)
	if err != nil {
		t.Fatalf("ParseBinary() error = %v", err)
	}
	if frame.Headers["Path"] != "audio" {
		t.Fatalf("Path = %q, want audio", frame.Headers["Path"])
	}
	if frame.Headers["Content-Type"] != "audio/mpeg" {
		t.Fatalf("Content-Type = %q", frame.Headers["Content-Type"])
	}
	if !bytes.Equal(frame.Payload, payload) {
		t.Fatalf("payload = %v, want %v", frame.Payload, payload)
	}
}

func TestParseBinary_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte", []byte{0x00}},
		{"header length exceeds frame", []byte{0x00, 0x10, 'P', 'a', 't', 'h'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBinary(tt.data); !errors.Is(err, ErrMalformedBinary) {
				t.Fatalf("error = %v, want ErrMalformedBinary", err)
			}
		})
	}
}

func TestParseBinary_EmptyPayload(t *testing.T) {
	header := []byte("Path:audio")
	data := append([]byte{0x00, byte(len(header))}, header...)
	frame, err := ParseBinary(data)
	if err != nil {
		t.Fatalf("ParseBinary() error = %v", err)
	}
	if len(frame.Payload) != 0 {
		t.Fatalf("payload = %v, want empty", frame.Payload)
	}
}

func TestMarshalText(t *testing.T) {
	got := MarshalText([]Header{
		{"X-Timestamp", "now"},
		{"Content-Type", "application/ssml+xml"},
		{"Path", "ssml"},
	}, "<speak/>")
	want := "X-Timestamp:now\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n<speak/>"
	if string(got) != want {
		t.Fatalf("MarshalText = %q, want %q", got, want)
	}
}

func TestTimestamp(t *testing.T) {
	at := time.Date(2024, 10, 27, 3, 33, 20, 0, time.UTC)
	want := "Sun Oct 27 2024 03:33:20 GMT+0000 (Coordinated Universal Time)"
	if got := Timestamp(at); got != want {
		t.Fatalf("Timestamp = %q, want %q", got, want)
	}
}
