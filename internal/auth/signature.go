package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// TrustedClientToken is the shared secret the read-aloud service expects
	// both in endpoint query strings and inside the Sec-MS-GEC digest.
	TrustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	// SecMSGECVersion is the Chromium build version the service associates
	// with this token scheme.
	SecMSGECVersion = "1-130.0.2849.68"

	windowsEpochOffset = 11644473600 // seconds between 1601-01-01 and 1970-01-01
	tokenWindow        = 300         // tokens are valid per 5-minute window
	ticksPerSecond     = 10_000_000  // 100-nanosecond ticks
)

var ErrSkewAdjustment = errors.New("clock skew adjustment failed")

// SkewTracker holds the process-wide correction between the local clock and
// the service clock. Token generation reads it; only a 403 recovery writes it.
type SkewTracker struct {
	mu   sync.Mutex
	skew time.Duration
	now  func() time.Time
}

func NewSkewTracker() *SkewTracker {
	return &SkewTracker{now: time.Now}
}

func (t *SkewTracker) Skew() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skew
}

// CorrectedUnix returns the current unix time in seconds with the skew applied.
func (t *SkewTracker) CorrectedUnix() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Add(t.skew).Unix()
}

// AdjustFromDate re-anchors the skew so the next generated token agrees with
// the server clock described by an RFC 2616 Date header. An absent or
// unparsable header is a hard error: continuing would reuse the same stale
// assumption that just got rejected.
func (t *SkewTracker) AdjustFromDate(dateHeader string) error {
	if strings.TrimSpace(dateHeader) == "" {
		return fmt.Errorf("%w: response carried no Date header", ErrSkewAdjustment)
	}
	serverTime, err := http.ParseTime(dateHeader)
	if err != nil {
		return fmt.Errorf("%w: unparsable Date header %q: %v", ErrSkewAdjustment, dateHeader, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skew += serverTime.Sub(t.now().Add(t.skew))
	return nil
}

// Generator derives Sec-MS-GEC tokens from the skew-corrected clock.
type Generator struct {
	tracker *SkewTracker
}

func NewGenerator(tracker *SkewTracker) *Generator {
	return &Generator{tracker: tracker}
}

// Generate returns the token for the current 5-minute window.
func (g *Generator) Generate() string {
	return GenerateAt(g.tracker.CorrectedUnix())
}

// GenerateAt derives the 64-character uppercase hex token for an explicit
// unix timestamp in seconds: the timestamp is shifted to the Windows
// file-time epoch, floored to a 300-second boundary, scaled to 100ns ticks,
// concatenated with the shared secret and hashed with SHA-256.
func GenerateAt(unixSeconds int64) string {
	ticks := unixSeconds + windowsEpochOffset
	ticks -= ticks % tokenWindow
	ticks *= ticksPerSecond
	sum := sha256.Sum256([]byte(strconv.FormatInt(ticks, 10) + TrustedClientToken))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
