package supervisor

import (
	"math"
	"time"
)

// Backoff returns the delay before the next attempt given the number of
// consecutive failures so far.
func (c *Config) Backoff(failures int) time.Duration {
	delay := c.ReconnectDelay
	if c.BackoffMultiplier <= 1 || failures <= 1 {
		return delay
	}
	scaled := float64(delay) * math.Pow(c.BackoffMultiplier, float64(failures-1))
	if c.MaxReconnectDelay > 0 && scaled > float64(c.MaxReconnectDelay) {
		return c.MaxReconnectDelay
	}
	if scaled > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}
