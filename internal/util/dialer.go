package util

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// NewDialer returns a websocket dialer with the same network settings the
// ingester uses everywhere: proxy from environment, bounded dial and TLS
// handshake, and the given websocket handshake timeout.
func NewDialer(handshake time.Duration) *websocket.Dialer {
	if handshake <= 0 {
		handshake = 45 * time.Second
	}
	return &websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		NetDialContext:    (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		HandshakeTimeout:  handshake,
		EnableCompression: true,
	}
}
