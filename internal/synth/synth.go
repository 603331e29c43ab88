// Package synth drives the read-aloud streaming synthesis protocol: it
// splits input text into protocol-sized chunks, opens a signed websocket
// session per attempt and turns the interleaved control, metadata and audio
// frames into an ordered event stream.
package synth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/voxkit/edgetts/internal/auth"
	"github.com/voxkit/edgetts/internal/voices"
)

const (
	wssEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/" +
		"readaloud/edge/v1?TrustedClientToken=" + auth.TrustedClientToken

	// DefaultOutputFormat is passed through verbatim into the speech.config
	// body; binary audio frames then carry audio/mpeg payloads.
	DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
	audioContentType    = "audio/mpeg"

	// maxMessageSize bounds one SSML chunk so the frame stays well inside
	// the service's websocket message limit.
	maxMessageSize = 4096

	// turnGapTicks is the fixed 0.875s pause (in 100ns ticks) the service
	// leaves between independently synthesized chunks. Added to the offset
	// compensation at every turn.end so boundary offsets stay monotonic.
	turnGapTicks = 8_750_000

	maxAttempts = 2
)

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrUnknownResponse    = errors.New("unknown response")
	ErrNoAudioReceived    = errors.New("no audio received")
	ErrWebsocket          = errors.New("websocket error")
)

// Boundary selects the metadata granularity the service reports.
type Boundary string

const (
	BoundaryWord     Boundary = "word"
	BoundarySentence Boundary = "sentence"
)

// Config carries the voice settings for one communicator.
type Config struct {
	Voice    string
	Rate     string
	Volume   string
	Pitch    string
	Boundary Boundary
}

var (
	ratePattern   = regexp.MustCompile(`^[+-]\d+%$`)
	volumePattern = regexp.MustCompile(`^[+-]\d+%$`)
	pitchPattern  = regexp.MustCompile(`^[+-]\d+Hz$`)
)

// withDefaults fills unset fields with the service defaults.
func (c Config) withDefaults() Config {
	if c.Voice == "" {
		c.Voice = "en-US-AriaNeural"
	}
	if c.Rate == "" {
		c.Rate = "+0%"
	}
	if c.Volume == "" {
		c.Volume = "+0%"
	}
	if c.Pitch == "" {
		c.Pitch = "+0Hz"
	}
	if c.Boundary == "" {
		c.Boundary = BoundaryWord
	}
	return c
}

// Validate checks the prosody strings against the shapes the service accepts.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Voice) == "" {
		return fmt.Errorf("%w: voice is required", ErrInvalidParameter)
	}
	if !ratePattern.MatchString(c.Rate) {
		return fmt.Errorf("%w: rate %q must match %s", ErrInvalidParameter, c.Rate, ratePattern)
	}
	if !volumePattern.MatchString(c.Volume) {
		return fmt.Errorf("%w: volume %q must match %s", ErrInvalidParameter, c.Volume, volumePattern)
	}
	if !pitchPattern.MatchString(c.Pitch) {
		return fmt.Errorf("%w: pitch %q must match %s", ErrInvalidParameter, c.Pitch, pitchPattern)
	}
	switch c.Boundary {
	case BoundaryWord, BoundarySentence:
	default:
		return fmt.Errorf("%w: boundary %q must be word or sentence", ErrInvalidParameter, c.Boundary)
	}
	return nil
}

// Event is one unit of synthesis output, delivered in receipt order.
type Event interface {
	isEvent()
}

// AudioChunk is a run of encoded audio bytes.
type AudioChunk struct {
	Data []byte
}

// BoundaryMark correlates a span of the input text with a position in the
// synthesized audio. Offset and Duration are 100-nanosecond ticks; Offset is
// already compensated across chunk boundaries.
type BoundaryMark struct {
	Kind     Boundary
	Offset   int64
	Duration int64
	Text     string
}

func (AudioChunk) isEvent()   {}
func (BoundaryMark) isEvent() {}

// prober performs the pre-connection warm-up call that detects clock skew.
type prober interface {
	Probe(ctx context.Context) error
}

// Communicator owns one voice configuration and produces synthesis streams.
type Communicator struct {
	cfg     Config
	format  string
	dialer  wsDialer
	prober  prober
	gen     *auth.Generator
	tracker *auth.SkewTracker

	connectTimeout time.Duration
	receiveTimeout time.Duration
}

// Option adjusts a Communicator at construction time.
type Option func(*Communicator)

// WithOutputFormat overrides the negotiated audio format string.
func WithOutputFormat(format string) Option {
	return func(c *Communicator) { c.format = format }
}

// WithConnectTimeout bounds the websocket dial and handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Communicator) { c.connectTimeout = d }
}

// WithReceiveTimeout bounds each frame read; exceeding it aborts the attempt.
func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Communicator) { c.receiveTimeout = d }
}

// WithSkewTracker shares a skew tracker between communicators so a single
// 403 recovery benefits every subsequent token.
func WithSkewTracker(tracker *auth.SkewTracker) Option {
	return func(c *Communicator) {
		c.tracker = tracker
		c.gen = auth.NewGenerator(tracker)
	}
}

func withDialer(d wsDialer) Option {
	return func(c *Communicator) { c.dialer = d }
}

func withProber(p prober) Option {
	return func(c *Communicator) { c.prober = p }
}

// New builds a Communicator for the given voice settings, filling defaults
// and validating the prosody strings.
func New(cfg Config, opts ...Option) (*Communicator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tracker := auth.NewSkewTracker()
	c := &Communicator{
		cfg:            cfg,
		format:         DefaultOutputFormat,
		gen:            auth.NewGenerator(tracker),
		tracker:        tracker,
		connectTimeout: 10 * time.Second,
		receiveTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = newGorillaDialer(c.connectTimeout)
	}
	if c.prober == nil {
		c.prober = voices.NewClient(c.gen, c.tracker)
	}
	return c, nil
}
