package supervisor

import (
	"context"
	"net/http"
)

// Conn is a message oriented duplex connection.
type Conn interface {
	// ReadMessage blocks until a frame arrives or the connection fails.
	ReadMessage(ctx context.Context) ([]byte, error)
	// WriteMessage sends a frame; it is safe for concurrent use.
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, URL string, header http.Header) (Conn, error)
}
