package supervisor

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HandshakeMode defines which side opens the MCP handshake.
type HandshakeMode string

const (
	// HandshakeAwait waits for the peer to send initialize.
	HandshakeAwait HandshakeMode = "await"
	// HandshakeInitiate sends initialize and notifications/initialized to the peer.
	HandshakeInitiate HandshakeMode = "initiate"
)

const (
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultReconnectDelay       = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 10 * time.Second
)

// Config represents connection supervisor settings.
type Config struct {
	URL    string
	Header http.Header
	// TokenSource, when set, is consulted before every dial; an invalid token fails the attempt.
	TokenSource oauth2.TokenSource

	HandshakeTimeout  time.Duration
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
	// MaxReconnectDelay caps exponential backoff; zero keeps the delay uncapped.
	MaxReconnectDelay time.Duration
	// BackoffMultiplier above 1 enables exponential backoff, otherwise the delay is fixed.
	BackoffMultiplier float64
	// MaxReconnectAttempts is the number of consecutive failed cycles before giving up; negative means unlimited.
	MaxReconnectAttempts int

	Handshake       HandshakeMode
	ProtocolVersion string
	ClientName      string
	ClientVersion   string
}

// Init applies defaults.
func (c *Config) Init() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Handshake == "" {
		c.Handshake = HandshakeAwait
	}
	if c.ClientName == "" {
		c.ClientName = "mcpws"
	}
}

// StaleAfter returns the idle period after which a ready connection is torn down.
func (c *Config) StaleAfter() time.Duration {
	return 2 * c.HeartbeatInterval
}
