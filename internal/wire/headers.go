package wire

import "net/http"

// The service checks for a believable browser alongside the signed token,
// so both the HTTP calls and the websocket upgrade mimic Edge on Windows.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.0.0"
	extensionOrigin = "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold"
)

// HTTPHeaders returns the headers sent with plain HTTP calls to the service.
func HTTPHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Authority", "speech.platform.bing.com")
	return h
}

// WebsocketHeaders returns the headers sent with the websocket upgrade.
func WebsocketHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Origin", extensionOrigin)
	h.Set("Pragma", "no-cache")
	h.Set("Cache-Control", "no-cache")
	return h
}
