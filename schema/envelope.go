package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/viant/jsonrpc"
)

// Kind classifies an envelope.
type Kind int

const (
	KindInvalid Kind = iota
	KindRequest
	KindNotification
	KindResponse
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindResponse:
		return "response"
	}
	return "invalid"
}

// Envelope represents a single JSON-RPC 2.0 message; the id is kept raw so that
// the caller's identifier type (number or string) survives a round trip.
type Envelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

var null = []byte("null")

// HasID reports whether the envelope carries a non-null identifier.
func (e *Envelope) HasID() bool {
	return len(e.Id) > 0 && !bytes.Equal(bytes.TrimSpace(e.Id), null)
}

// Kind returns the envelope variant.
func (e *Envelope) Kind() Kind {
	if e.Method != "" {
		if e.Result != nil || e.Error != nil {
			return KindInvalid
		}
		if e.HasID() {
			return KindRequest
		}
		return KindNotification
	}
	hasResult := e.Result != nil
	hasError := e.Error != nil
	if hasResult == hasError {
		return KindInvalid
	}
	if !e.HasID() && !hasError {
		return KindInvalid
	}
	return KindResponse
}

// MethodKind returns the method variant of a request or notification.
func (e *Envelope) MethodKind() MethodKind {
	return KindOfMethod(e.Method)
}

// IDString returns the textual identifier, used in logs.
func (e *Envelope) IDString() string {
	if !e.HasID() {
		return ""
	}
	return string(e.Id)
}

// Clone returns a shallow copy whose id can be rewritten independently.
func (e *Envelope) Clone() *Envelope {
	ret := *e
	return &ret
}

// ParseEnvelope decodes one wire frame.
func ParseEnvelope(data []byte) (*Envelope, error) {
	envelope := &Envelope{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if envelope.Jsonrpc != jsonrpc.Version {
		return nil, fmt.Errorf("unsupported jsonrpc version: %q", envelope.Jsonrpc)
	}
	if envelope.Kind() == KindInvalid {
		return nil, fmt.Errorf("invalid envelope: missing method, id or result")
	}
	return envelope, nil
}

// NewRequest creates a request envelope.
func NewRequest(id json.RawMessage, method string, params interface{}) (*Envelope, error) {
	envelope := &Envelope{Jsonrpc: jsonrpc.Version, Id: id, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		envelope.Params = data
	}
	return envelope, nil
}

// NewNotification creates a notification envelope.
func NewNotification(method string, params interface{}) (*Envelope, error) {
	return NewRequest(nil, method, params)
}

// NewResult creates a success response envelope.
func NewResult(id json.RawMessage, result interface{}) (*Envelope, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Envelope{Jsonrpc: jsonrpc.Version, Id: id, Result: data}, nil
}

// NewErrorResponse creates an error response envelope.
func NewErrorResponse(id json.RawMessage, err *jsonrpc.Error) *Envelope {
	if len(id) == 0 {
		id = null
	}
	return &Envelope{Jsonrpc: jsonrpc.Version, Id: id, Error: err}
}

// IntID encodes a numeric identifier.
func IntID(id uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf("%d", id))
}
