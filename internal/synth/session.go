package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voxkit/edgetts/internal/auth"
	"github.com/voxkit/edgetts/internal/logging"
	"github.com/voxkit/edgetts/internal/textseg"
	"github.com/voxkit/edgetts/internal/wire"
)

// attempt is the per-connection state: one token, one connection, one pass
// over the full chunk sequence. Never reused across retries.
type attempt struct {
	conn               wsConn
	offsetCompensation int64
	lastDurationOffset int64
	audioReceived      bool
}

// Stream escapes and chunks the text, runs the clock-skew warm-up probe and
// starts the synthesis exchange. Events arrive on the returned stream in
// receipt order; cancel ctx or call Close to abandon the connection.
func (c *Communicator) Stream(ctx context.Context, text string) (*Stream, error) {
	chunks, err := textseg.Split(textseg.EscapeXML(text), maxMessageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no speakable text", ErrInvalidParameter)
	}

	// Warm-up call against the voice list endpoint. Its only job here is to
	// trip a 403 early and re-anchor the clock skew before we burn a
	// connection attempt on a stale token.
	if err := c.prober.Probe(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	st := newStream(cancel)
	go c.run(ctx, chunks, st)
	return st, nil
}

// Synthesize drains a stream and concatenates the audio bytes.
func (c *Communicator) Synthesize(ctx context.Context, text string) ([]byte, error) {
	st, err := c.Stream(ctx, text)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	var buf bytes.Buffer
	for ev := range st.Events() {
		if chunk, ok := ev.(AudioChunk); ok {
			buf.Write(chunk.Data)
		}
	}
	if err := st.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Communicator) run(ctx context.Context, chunks []string, st *Stream) {
	defer close(st.events)

	var lastErr error
	for n := 1; n <= maxAttempts; n++ {
		err := c.attemptOnce(ctx, chunks, st)
		if err == nil {
			st.finish(nil)
			return
		}
		if isFatal(err) {
			st.finish(err)
			return
		}
		logging.Warnf("synthesis attempt %d/%d failed: %v", n, maxAttempts, err)
		lastErr = err
	}
	st.finish(fmt.Errorf("%w: %v", ErrWebsocket, lastErr))
}

// isFatal reports errors the retry loop must surface as-is: caller mistakes,
// clean-but-silent exchanges, unrecoverable skew state and cancellation.
func isFatal(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrNoAudioReceived) ||
		errors.Is(err, auth.ErrSkewAdjustment) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// attemptOnce runs the whole multi-chunk exchange over one fresh connection.
// Any error abandons the connection; the caller decides whether to retry.
func (c *Communicator) attemptOnce(ctx context.Context, chunks []string, st *Stream) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	connID := newConnectionID()
	logging.SetTraceID(connID)
	token := c.gen.Generate()
	endpoint := wssEndpoint +
		"&Sec-MS-GEC=" + token +
		"&Sec-MS-GEC-Version=" + auth.SecMSGECVersion +
		"&ConnectionId=" + connID

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, wire.WebsocketHeaders())
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			if skewErr := c.tracker.AdjustFromDate(resp.Header.Get("Date")); skewErr != nil {
				return skewErr
			}
			// Skew re-anchored; the retry will carry a corrected token.
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Tear the connection down as soon as the consumer cancels, so a
	// blocked ReadMessage unblocks instead of leaking the session.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchDone:
		}
	}()

	a := &attempt{conn: conn}
	if err := c.sendSpeechConfig(a); err != nil {
		return fmt.Errorf("send speech.config: %w", err)
	}
	for i, chunk := range chunks {
		if err := c.sendSSML(a, chunk); err != nil {
			return fmt.Errorf("send ssml chunk %d: %w", i, err)
		}
		if err := c.receiveTurn(ctx, a, st); err != nil {
			return err
		}
	}
	if !a.audioReceived {
		return ErrNoAudioReceived
	}
	return nil
}

// receiveTurn reads frames until the current chunk's turn.end arrives.
func (c *Communicator) receiveTurn(ctx context.Context, a *attempt, st *Stream) error {
	for {
		if c.receiveTimeout > 0 {
			_ = a.conn.SetReadDeadline(time.Now().Add(c.receiveTimeout))
		}
		msgType, data, err := a.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			turnDone, err := c.handleText(ctx, a, data, st)
			if err != nil {
				return err
			}
			if turnDone {
				return nil
			}
		case websocket.BinaryMessage:
			if err := c.handleBinary(ctx, a, data, st); err != nil {
				return err
			}
		}
	}
}

func (c *Communicator) handleText(ctx context.Context, a *attempt, data []byte, st *Stream) (bool, error) {
	frame, err := wire.ParseText(data)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	path, ok := frame.Headers["Path"]
	if !ok {
		return false, fmt.Errorf("%w: text frame missing Path header", ErrUnexpectedResponse)
	}

	switch path {
	case "audio.metadata":
		mark, err := c.parseMetadata(frame.Payload, a)
		if err != nil {
			return false, err
		}
		a.lastDurationOffset = mark.Offset + mark.Duration
		if !st.emit(ctx, mark) {
			return false, ctx.Err()
		}
		return false, nil
	case "turn.end":
		a.offsetCompensation = a.lastDurationOffset + turnGapTicks
		return true, nil
	case "turn.start", "response":
		return false, nil
	default:
		return false, fmt.Errorf("%w: path %q", ErrUnknownResponse, path)
	}
}

func (c *Communicator) handleBinary(ctx context.Context, a *attempt, data []byte, st *Stream) error {
	frame, err := wire.ParseBinary(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if path := frame.Headers["Path"]; path != "audio" {
		return fmt.Errorf("%w: binary frame path %q", ErrUnexpectedResponse, path)
	}
	if ct, ok := frame.Headers["Content-Type"]; ok && ct != audioContentType {
		return fmt.Errorf("%w: binary frame content type %q", ErrUnexpectedResponse, ct)
	}
	if len(frame.Payload) == 0 {
		// Keep-alive style empty audio frame, nothing to deliver.
		return nil
	}
	a.audioReceived = true
	if !st.emit(ctx, AudioChunk{Data: frame.Payload}) {
		return ctx.Err()
	}
	return nil
}

// metadataPayload mirrors the wire shape of audio.metadata bodies.
type metadataPayload struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   float64 `json:"Offset"`
			Duration float64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

// parseMetadata picks the first entry of a known boundary kind. Unknown
// kinds are skipped; a body with no known kind at all is a protocol error.
func (c *Communicator) parseMetadata(payload []byte, a *attempt) (BoundaryMark, error) {
	var meta metadataPayload
	if err := json.Unmarshal(payload, &meta); err != nil {
		return BoundaryMark{}, fmt.Errorf("%w: audio.metadata body: %v", ErrUnexpectedResponse, err)
	}
	for _, entry := range meta.Metadata {
		var kind Boundary
		switch entry.Type {
		case "WordBoundary":
			kind = BoundaryWord
		case "SentenceBoundary":
			kind = BoundarySentence
		default:
			continue
		}
		return BoundaryMark{
			Kind:     kind,
			Offset:   int64(entry.Data.Offset) + a.offsetCompensation,
			Duration: int64(entry.Data.Duration),
			Text:     entry.Data.Text.Text,
		}, nil
	}
	return BoundaryMark{}, fmt.Errorf("%w: audio.metadata carried no boundary entry", ErrUnexpectedResponse)
}

type speechConfigBody struct {
	Context struct {
		Synthesis struct {
			Audio struct {
				MetadataOptions struct {
					SentenceBoundaryEnabled bool `json:"sentenceBoundaryEnabled"`
					WordBoundaryEnabled     bool `json:"wordBoundaryEnabled"`
				} `json:"metadataoptions"`
				OutputFormat string `json:"outputFormat"`
			} `json:"audio"`
		} `json:"synthesis"`
	} `json:"context"`
}

func (c *Communicator) sendSpeechConfig(a *attempt) error {
	var body speechConfigBody
	body.Context.Synthesis.Audio.MetadataOptions.SentenceBoundaryEnabled = c.cfg.Boundary == BoundarySentence
	body.Context.Synthesis.Audio.MetadataOptions.WordBoundaryEnabled = c.cfg.Boundary == BoundaryWord
	body.Context.Synthesis.Audio.OutputFormat = c.format

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	frame := wire.MarshalText([]wire.Header{
		{Key: "X-Timestamp", Value: wire.Timestamp(time.Now())},
		{Key: "Content-Type", Value: "application/json; charset=utf-8"},
		{Key: "Path", Value: "speech.config"},
	}, string(payload))
	return a.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Communicator) sendSSML(a *attempt, chunk string) error {
	frame := wire.MarshalText([]wire.Header{
		{Key: "X-RequestId", Value: newConnectionID()},
		{Key: "Content-Type", Value: "application/ssml+xml"},
		{Key: "X-Timestamp", Value: wire.Timestamp(time.Now()) + "Z"},
		{Key: "Path", Value: "ssml"},
	}, buildSSML(c.cfg, chunk))
	return a.conn.WriteMessage(websocket.TextMessage, frame)
}

// buildSSML wraps an already-escaped chunk in the prosody envelope.
func buildSSML(cfg Config, text string) string {
	return fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>",
		cfg.Voice, cfg.Pitch, cfg.Rate, cfg.Volume, text)
}

// newConnectionID returns a uuid4 without hyphens, the id shape the service
// expects for both ConnectionId and X-RequestId.
func newConnectionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
