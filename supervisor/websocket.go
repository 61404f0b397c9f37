package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultReadLimit bounds a single inbound frame.
const DefaultReadLimit = 16 * 1024 * 1024

// WebSocketDialer dials text frame websocket connections.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
}

func (d *WebSocketDialer) Dial(ctx context.Context, URL string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %v: %w (status: %v)", redactURL(URL), err, resp.Status)
		}
		return nil, fmt.Errorf("failed to dial %v: %w", redactURL(URL), err)
	}
	limit := d.ReadLimit
	if limit == 0 {
		limit = DefaultReadLimit
	}
	conn.SetReadLimit(limit)
	return NewWebSocketConn(conn, d.WriteTimeout), nil
}

// WebSocketConn adapts a gorilla websocket connection.
type WebSocketConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mux          sync.Mutex
	closeOnce    sync.Once
}

func (c *WebSocketConn) ReadMessage(ctx context.Context) ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *WebSocketConn) WriteMessage(ctx context.Context, data []byte) error {
	c.mux.Lock()
	defer c.mux.Unlock()
	deadline := time.Now().Add(c.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mux.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.mux.Unlock()
		err = c.conn.Close()
	})
	return err
}

// NewWebSocketConn wraps conn.
func NewWebSocketConn(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketConn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WebSocketConn{conn: conn, writeTimeout: writeTimeout}
}
