package router

import "time"

const (
	DefaultQueueSize      = 64
	DefaultRequestTimeout = 5 * time.Minute
	DefaultSweepInterval  = 30 * time.Second
)

// Config represents router settings.
type Config struct {
	ProtocolVersion string
	Name            string
	Version         string
	// QueueSize bounds messages held until the first handshake completes.
	QueueSize int
	// RequestTimeout is the age after which an unanswered relayed request is failed.
	RequestTimeout time.Duration
	SweepInterval  time.Duration
}

func (c *Config) Init() {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.Name == "" {
		c.Name = "mcpws"
	}
}
