package router

// Side identifies a transport of the bridge.
type Side int

const (
	// Local is the stdio client.
	Local Side = iota
	// Remote is the persistent websocket peer.
	Remote
)

func (s Side) String() string {
	if s == Local {
		return "local"
	}
	return "remote"
}

// Opposite returns the other transport.
func (s Side) Opposite() Side {
	if s == Local {
		return Remote
	}
	return Local
}
