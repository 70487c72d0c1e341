package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Feed is an in-process stand-in for the AIS websocket endpoint. Each
// connection reads the subscription frame and then runs the script.
type Feed struct {
	server *httptest.Server

	mu   sync.Mutex
	subs [][]byte
}

// FeedConn is the server side of one client connection.
type FeedConn struct {
	*websocket.Conn
	t testing.TB
}

// NewFeed starts a feed that runs script for every connection. The server is
// closed when the test ends.
func NewFeed(t testing.TB, script func(c *FeedConn)) *Feed {
	t.Helper()
	f := &Feed{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("feed: upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			t.Logf("feed: read subscription: %v", err)
			return
		}
		f.mu.Lock()
		f.subs = append(f.subs, sub)
		f.mu.Unlock()

		script(&FeedConn{Conn: conn, t: t})
	}))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the ws:// address of the feed.
func (f *Feed) URL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

// Close stops the server; later dials fail.
func (f *Feed) Close() { f.server.Close() }

// Subscriptions returns the subscription frames received so far.
func (f *Feed) Subscriptions() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.subs))
	copy(out, f.subs)
	return out
}

// Send writes frames as text messages.
func (c *FeedConn) Send(frames ...[]byte) {
	for _, fr := range frames {
		if err := c.WriteMessage(websocket.TextMessage, fr); err != nil {
			c.t.Logf("feed: send: %v", err)
			return
		}
	}
}

// CloseWith sends a close frame with the given code and hangs up.
func (c *FeedConn) CloseWith(code int, text string) {
	_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	_ = c.Close()
}

// Drop closes the TCP connection without a close frame.
func (c *FeedConn) Drop() {
	_ = c.UnderlyingConn().Close()
}

// Reset aborts the TCP connection so the client sees a connection reset.
func (c *FeedConn) Reset() {
	if tc, ok := c.UnderlyingConn().(*net.TCPConn); ok {
		_ = tc.SetLinger(0)
	}
	_ = c.UnderlyingConn().Close()
}

// Wait blocks until the client goes away.
func (c *FeedConn) Wait() {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
