// Package supervisor owns the persistent websocket connection: it dials,
// performs or awaits the MCP handshake, emits heartbeats, detects a stale
// socket and reconnects with a bounded attempt budget.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viant/mcpws/internal/collection"
	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

var (
	// ErrAbandoned is returned by Run once the reconnect budget is exhausted.
	ErrAbandoned = errors.New("connection abandoned")
	// ErrNotConnected is returned by Send unless the connection is ready.
	ErrNotConnected = errors.New("not connected")
	// ErrStaleConnection is returned by Send for a connection that no longer exists.
	ErrStaleConnection = errors.New("stale connection")
	// ErrHeartbeatTimeout tears down a connection with no inbound traffic.
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	// ErrHandshakeTimeout tears down a connection that never became ready.
	ErrHandshakeTimeout = errors.New("handshake timeout")
)

// Handler receives connection events. OnMessage runs on the read goroutine and
// may overlap OnReady and OnDisconnect of the same generation.
type Handler interface {
	OnMessage(ctx context.Context, generation uint64, envelope *schema.Envelope)
	OnReady(ctx context.Context, generation uint64)
	OnDisconnect(generation uint64, err error)
}

// IDAllocator hands out request identifiers for the remote identifier space.
type IDAllocator interface {
	Allocate() uint64
}

// Supervisor manages one logical connection across reconnects.
type Supervisor struct {
	config  *Config
	dialer  Dialer
	handler Handler
	ids     IDAllocator
	logger  *zap.Logger

	mux        sync.RWMutex
	state      State
	conn       Conn
	generation uint64
	ready      chan struct{}
	readyOnce  *sync.Once

	lastInbound atomic.Int64
	heartbeats  *collection.TimeSet[uint64]
	handshake   *collection.SyncMap[uint64, chan *schema.Envelope]

	closed    chan struct{}
	closeOnce sync.Once
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state
}

// Generation returns the identifier of the current connection.
func (s *Supervisor) Generation() uint64 {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.generation
}

// PendingHeartbeats returns the number of unanswered pings.
func (s *Supervisor) PendingHeartbeats() int {
	return s.heartbeats.Len()
}

func (s *Supervisor) setState(state State) {
	s.mux.Lock()
	prev := s.state
	if prev != Closing {
		s.state = state
	}
	s.mux.Unlock()
	if prev != state {
		s.logger.Debug("connection state changed", zap.Stringer("from", prev), zap.Stringer("to", state))
	}
}

func (s *Supervisor) isClosing() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Run drives the connection until Close is called, ctx is cancelled or the
// reconnect budget is exhausted.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.closed:
			cancel()
		case <-ctx.Done():
		}
	}()
	failures := 0
	for {
		if ctx.Err() != nil || s.isClosing() {
			s.setState(Closing)
			return nil
		}
		reachedReady, err := s.cycle(ctx)
		if ctx.Err() != nil || s.isClosing() {
			s.setState(Closing)
			return nil
		}
		if reachedReady {
			failures = 0
			s.logger.Warn("connection lost", zap.Error(err))
		} else {
			failures++
			s.logger.Warn("connection attempt failed", zap.Int("attempt", failures), zap.Int("maxAttempts", s.config.MaxReconnectAttempts), zap.Error(err))
			if s.config.MaxReconnectAttempts > 0 && failures >= s.config.MaxReconnectAttempts {
				s.setState(Disconnected)
				return fmt.Errorf("%w: %d consecutive attempts failed: %v", ErrAbandoned, failures, err)
			}
		}
		delay := s.config.Backoff(failures)
		s.logger.Info("reconnecting", zap.Duration("delay", delay))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
}

// cycle runs one connection from dial to teardown and reports whether it became ready.
func (s *Supervisor) cycle(ctx context.Context) (bool, error) {
	s.setState(Connecting)
	header := s.config.Header.Clone()
	if s.config.TokenSource != nil {
		token, err := s.config.TokenSource.Token()
		if err != nil {
			s.setState(Disconnected)
			return false, fmt.Errorf("failed to get token: %w", err)
		}
		if !token.Valid() {
			s.setState(Disconnected)
			return false, fmt.Errorf("token expired at %v", token.Expiry)
		}
		if header == nil {
			header = make(map[string][]string)
		}
		header.Set("Authorization", token.Type()+" "+token.AccessToken)
	}
	dialCtx, cancelDial := context.WithTimeout(ctx, s.config.HandshakeTimeout)
	conn, err := s.dialer.Dial(dialCtx, s.config.URL, header)
	cancelDial()
	if err != nil {
		s.setState(Disconnected)
		return false, err
	}
	connCtx, cancelConn := context.WithCancel(ctx)
	generation, ready := s.attach(conn)
	logger := s.logger.With(zap.String("conn", uuid.NewString()), zap.Uint64("generation", generation))
	logger.Info("connected", zap.String("url", redactURL(s.config.URL)))

	errs := make(chan error, 3)
	reachedReady := false
	defer func() {
		cancelConn()
		_ = conn.Close()
		s.detach(generation)
		s.handler.OnDisconnect(generation, err)
		logger.Info("disconnected", zap.Bool("wasReady", reachedReady))
	}()

	go s.readLoop(connCtx, generation, conn, errs)
	if s.config.Handshake == HandshakeInitiate {
		go func() {
			if err := s.initiate(connCtx, generation); err != nil {
				errs <- err
			}
		}()
	}

	timer := time.NewTimer(s.config.HandshakeTimeout)
	select {
	case <-ready:
		timer.Stop()
	case err = <-errs:
		timer.Stop()
		return false, err
	case <-timer.C:
		err = ErrHandshakeTimeout
		return false, err
	case <-connCtx.Done():
		timer.Stop()
		err = connCtx.Err()
		return false, err
	}

	s.setState(Ready)
	reachedReady = true
	logger.Info("ready")
	s.handler.OnReady(connCtx, generation)
	go s.heartbeat(connCtx, generation, errs)

	select {
	case err = <-errs:
	case <-connCtx.Done():
		err = connCtx.Err()
	}
	return true, err
}

func (s *Supervisor) attach(conn Conn) (uint64, chan struct{}) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.generation++
	s.conn = conn
	s.ready = make(chan struct{})
	s.readyOnce = &sync.Once{}
	if s.state != Closing {
		s.state = Handshaking
	}
	s.lastInbound.Store(time.Now().UnixNano())
	s.heartbeats.Clear()
	return s.generation, s.ready
}

func (s *Supervisor) detach(generation uint64) {
	s.mux.Lock()
	if s.generation == generation {
		s.conn = nil
		if s.state != Closing {
			s.state = Disconnected
		}
	}
	s.mux.Unlock()
	s.heartbeats.Clear()
	s.handshake.Clear()
}

// MarkReady completes the handshake of connection generation.
func (s *Supervisor) MarkReady(generation uint64) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.generation != generation || s.readyOnce == nil {
		return
	}
	ready := s.ready
	s.readyOnce.Do(func() { close(ready) })
}

func (s *Supervisor) readLoop(ctx context.Context, generation uint64, conn Conn, errs chan<- error) {
	for {
		data, err := conn.ReadMessage(ctx)
		if err != nil {
			errs <- fmt.Errorf("read failed: %w", err)
			return
		}
		s.lastInbound.Store(time.Now().UnixNano())
		envelope, err := schema.ParseEnvelope(data)
		if err != nil {
			s.logger.Warn("dropping inbound frame", zap.Error(err), zap.ByteString("data", truncate(data, 256)))
			continue
		}
		if s.consume(envelope) {
			continue
		}
		s.handler.OnMessage(ctx, generation, envelope)
	}
}

// consume intercepts responses addressed to the supervisor itself.
func (s *Supervisor) consume(envelope *schema.Envelope) bool {
	if envelope.Kind() != schema.KindResponse {
		return false
	}
	id, ok := parseID(envelope.Id)
	if !ok {
		return false
	}
	if s.heartbeats.Remove(id) {
		return true
	}
	if waiting, ok := s.handshake.Take(id); ok {
		waiting <- envelope
		return true
	}
	return false
}

// Send transmits envelope on connection generation; zero targets the current connection.
func (s *Supervisor) Send(ctx context.Context, generation uint64, envelope *schema.Envelope) error {
	s.mux.RLock()
	conn, current, state := s.conn, s.generation, s.state
	s.mux.RUnlock()
	if generation != 0 && generation != current {
		return ErrStaleConnection
	}
	if conn == nil {
		return ErrNotConnected
	}
	switch state {
	case Ready:
	case Handshaking:
		if !allowedWhileHandshaking(envelope) {
			return ErrNotConnected
		}
	default:
		return ErrNotConnected
	}
	return s.write(ctx, conn, envelope)
}

func (s *Supervisor) write(ctx context.Context, conn Conn, envelope *schema.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	if err = conn.WriteMessage(ctx, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

func allowedWhileHandshaking(envelope *schema.Envelope) bool {
	if envelope.Kind() == schema.KindResponse {
		return true
	}
	switch envelope.Method {
	case schema.MethodInitialize, schema.MethodNotificationInitialized:
		return true
	}
	return false
}

// Close stops the supervisor and suppresses further reconnects.
func (s *Supervisor) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mux.Lock()
		s.state = Closing
		conn := s.conn
		s.mux.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
	})
	return nil
}

func truncate(data []byte, max int) []byte {
	if len(data) > max {
		return data[:max]
	}
	return data
}

// New creates a supervisor.
func New(config *Config, dialer Dialer, handler Handler, ids IDAllocator, logger *zap.Logger) *Supervisor {
	config.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if dialer == nil {
		dialer = &WebSocketDialer{HandshakeTimeout: config.HandshakeTimeout}
	}
	return &Supervisor{
		config:     config,
		dialer:     dialer,
		handler:    handler,
		ids:        ids,
		logger:     logger,
		heartbeats: collection.NewTimeSet[uint64](),
		handshake:  collection.NewSyncMap[uint64, chan *schema.Envelope](),
		closed:     make(chan struct{}),
	}
}
