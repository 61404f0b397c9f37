package schema

import (
	"fmt"
	"github.com/viant/jsonrpc"
)

const (
	// NotConnected is returned when a relayed request cannot reach the other side.
	NotConnected = -32000
	// RequestTimeout is returned for relayed requests whose response never arrived.
	RequestTimeout = -32001
	// QueueFull is returned when the pre-handshake queue overflows.
	QueueFull = -32002
)

// NewMethodNotSupported creates an error for methods nobody can serve.
func NewMethodNotSupported(method string) *jsonrpc.Error {
	return jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", method), nil)
}

// NewAlreadyInitialized creates an error for a repeated initialize on the same connection.
func NewAlreadyInitialized() *jsonrpc.Error {
	return jsonrpc.NewInvalidRequest("connection already initialized", nil)
}

func NewNotConnected() *jsonrpc.Error {
	return jsonrpc.NewError(NotConnected, "not connected", nil)
}

func NewConnectionLost() *jsonrpc.Error {
	return jsonrpc.NewError(NotConnected, "connection lost", nil)
}

func NewRequestTimeout() *jsonrpc.Error {
	return jsonrpc.NewError(RequestTimeout, "request timed out", nil)
}

func NewQueueFull() *jsonrpc.Error {
	return jsonrpc.NewError(QueueFull, "queue full", nil)
}
