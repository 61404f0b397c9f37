package supervisor

// State represents the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Handshaking
	Ready
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	case Closing:
		return "closing"
	}
	return "unknown"
}
