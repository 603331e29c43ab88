package synth

import "context"

// Stream is one live synthesis: the caller ranges over Events and checks
// Err once the channel closes. Close abandons the underlying connection.
type Stream struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

func newStream(cancel context.CancelFunc) *Stream {
	return &Stream{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Events yields audio chunks and boundary marks in receipt order. The
// channel closes when the synthesis completes or fails.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err reports the terminal error, or nil, once Events has closed.
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops consumption early; the producing side closes the connection
// abnormally and releases the attempt.
func (s *Stream) Close() {
	s.cancel()
}

// emit delivers one event unless the consumer has gone away.
func (s *Stream) emit(ctx context.Context, ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish records the terminal state and releases the consumer. Must be
// called exactly once, before the events channel closes.
func (s *Stream) finish(err error) {
	s.err = err
	close(s.done)
}
