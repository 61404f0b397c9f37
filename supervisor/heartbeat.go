package supervisor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/viant/mcpws/internal/conv"
	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

// heartbeat pings the peer while the connection is ready and reports a stale socket.
func (s *Supervisor) heartbeat(ctx context.Context, generation uint64, errs chan<- error) {
	interval := s.config.HeartbeatInterval
	staleAfter := s.config.StaleAfter()
	pings := time.NewTicker(interval)
	defer pings.Stop()
	watchdog := time.NewTicker(watchdogInterval(interval))
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-watchdog.C:
			if idle := s.idle(); idle > staleAfter {
				s.logger.Warn("no inbound traffic", zap.Duration("idle", idle), zap.Int("pendingPings", s.heartbeats.Len()))
				errs <- ErrHeartbeatTimeout
				return
			}
		case <-pings.C:
			id := s.ids.Allocate()
			ping, err := schema.NewRequest(schema.IntID(id), schema.MethodPing, nil)
			if err != nil {
				continue
			}
			s.heartbeats.Add(id)
			if err = s.Send(ctx, generation, ping); err != nil {
				s.heartbeats.Remove(id)
				s.logger.Debug("failed to send heartbeat", zap.Error(err))
			}
		}
	}
}

func (s *Supervisor) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastInbound.Load()))
}

func watchdogInterval(interval time.Duration) time.Duration {
	ret := interval / 4
	if ret < time.Millisecond {
		ret = time.Millisecond
	}
	return ret
}

func parseID(id json.RawMessage) (uint64, bool) {
	return conv.AsUint64(id)
}
