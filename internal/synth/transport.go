package synth

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is the slice of *websocket.Conn the session needs; tests substitute
// scripted fakes.
type wsConn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
}

type wsDialer interface {
	DialContext(ctx context.Context, urlStr string, header http.Header) (wsConn, *http.Response, error)
}

type gorillaDialer struct {
	dialer *websocket.Dialer
}

func newGorillaDialer(handshakeTimeout time.Duration) gorillaDialer {
	return gorillaDialer{dialer: &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}}
}

func (g gorillaDialer) DialContext(ctx context.Context, urlStr string, header http.Header) (wsConn, *http.Response, error) {
	conn, resp, err := g.dialer.DialContext(ctx, urlStr, header)
	if conn == nil {
		return nil, resp, err
	}
	return conn, resp, err
}
