package schema

import "encoding/json"

// CancelledParams represents notifications/cancelled params.
type CancelledParams struct {
	RequestId json.RawMessage `json:"requestId"`
	Reason    string          `json:"reason,omitempty"`
}
