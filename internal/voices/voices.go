// Package voices fetches the service's voice catalog and doubles as the
// clock-skew warm-up probe used before every synthesis stream.
package voices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voxkit/edgetts/internal/auth"
	"github.com/voxkit/edgetts/internal/wire"
)

const listEndpoint = "https://speech.platform.bing.com/consumer/speech/synthesize/" +
	"readaloud/voices/list?trustedclienttoken=" + auth.TrustedClientToken

// Voice is one catalog entry as the service reports it.
type Voice struct {
	Name           string   `json:"Name"`
	ShortName      string   `json:"ShortName"`
	Gender         string   `json:"Gender"`
	Locale         string   `json:"Locale"`
	SuggestedCodec string   `json:"SuggestedCodec"`
	FriendlyName   string   `json:"FriendlyName"`
	Status         string   `json:"Status"`
	VoiceTag       VoiceTag `json:"VoiceTag"`
}

type VoiceTag struct {
	ContentCategories  []string `json:"ContentCategories"`
	VoicePersonalities []string `json:"VoicePersonalities"`
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the voice-list endpoint with a fresh signed token per request.
type Client struct {
	http    httpDoer
	gen     *auth.Generator
	tracker *auth.SkewTracker
}

// Option adjusts a Client at construction time.
type Option func(*Client)

func withHTTP(h httpDoer) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(gen *auth.Generator, tracker *auth.SkewTracker, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		gen:     gen,
		tracker: tracker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context) (*http.Response, error) {
	endpoint := listEndpoint +
		"&Sec-MS-GEC=" + c.gen.Generate() +
		"&Sec-MS-GEC-Version=" + auth.SecMSGECVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header = wire.HTTPHeaders()
	return c.http.Do(req)
}

// List returns the voice catalog. A 403 re-anchors the clock skew and the
// call is retried once with a corrected token.
func (c *Client) List(ctx context.Context) ([]Voice, error) {
	resp, err := c.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		date := resp.Header.Get("Date")
		drain(resp)
		if err := c.tracker.AdjustFromDate(date); err != nil {
			return nil, err
		}
		if resp, err = c.get(ctx); err != nil {
			return nil, fmt.Errorf("list voices: %w", err)
		}
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list voices: unexpected status %d", resp.StatusCode)
	}
	var voices []Voice
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("list voices: decode: %w", err)
	}
	return voices, nil
}

// Probe performs the lightweight warm-up call that detects clock skew. A
// 403 triggers skew recovery; any other status is fine, the response body is
// discarded. Transport errors are returned because the synthesis connection
// that follows would fail the same way.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.get(ctx)
	if err != nil {
		return fmt.Errorf("warm-up probe: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusForbidden {
		return c.tracker.AdjustFromDate(resp.Header.Get("Date"))
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
