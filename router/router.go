// Package router classifies JSON-RPC envelopes arriving on either transport
// and either answers them locally or relays them across the bridge with
// identifier translation.
package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcpws/internal/collection"
	"github.com/viant/mcpws/schema"
	"github.com/viant/mcpws/supervisor"
	"github.com/viant/mcpws/translator"
	"go.uber.org/zap"
)

// Endpoint sends envelopes on a transport; generation zero targets the current connection.
type Endpoint interface {
	Send(ctx context.Context, generation uint64, envelope *schema.Envelope) error
}

// Dispatcher answers tool requests.
type Dispatcher interface {
	Tools() []schema.Tool
	Call(ctx context.Context, params *schema.CallToolParams) *schema.CallToolResult
}

// Router routes envelopes between the local and remote transports.
type Router struct {
	config      *Config
	tools       Dispatcher
	logger      *zap.Logger
	endpoints   [2]Endpoint
	translators [2]*translator.Translator
	sessions    [2]*session
	calls       [2]*collection.SyncMap[string, context.CancelFunc]
	onHandshake func(generation uint64)

	mux   sync.Mutex
	ready bool
	queue *queue
	// ordering serializes local traffic with the replay of queued messages
	ordering sync.Mutex
	inflight sync.WaitGroup
}

// SetEndpoint installs the transport for side; a nil local endpoint means the router only serves tools.
func (r *Router) SetEndpoint(side Side, endpoint Endpoint) {
	r.endpoints[side] = endpoint
}

// OnHandshake registers the callback invoked once the remote initialize was answered.
func (r *Router) OnHandshake(fn func(generation uint64)) {
	r.onHandshake = fn
}

// Translator returns the translator for requests sent to side.
func (r *Router) Translator(side Side) *translator.Translator {
	return r.translators[side]
}

// Handle routes one inbound envelope received on side.
func (r *Router) Handle(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	if side == Local {
		r.ordering.Lock()
		defer r.ordering.Unlock()
	}
	if !r.admit(side, generation, envelope) {
		return
	}
	r.route(ctx, side, generation, envelope)
}

// admit queues messages that arrive before the handshake and reports whether envelope may be routed now.
func (r *Router) admit(side Side, generation uint64, envelope *schema.Envelope) bool {
	// session checks and the push share r.mux with the replay in OnReady, initialize and OnDisconnect
	r.mux.Lock()
	if side == Remote && r.sessions[Remote].isClosed(generation) {
		r.mux.Unlock()
		r.logger.Debug("dropping message from closed connection", zap.Uint64("generation", generation), zap.String("method", envelope.Method))
		return false
	}
	if envelope.Kind() == schema.KindRequest && envelope.MethodKind() == schema.MethodKindInitialize {
		r.mux.Unlock()
		return true
	}
	if (side == Remote && r.sessions[Remote].isOpen(generation)) || (side == Local && r.ready) {
		r.mux.Unlock()
		return true
	}
	accepted := r.queue.push(&queued{side: side, generation: generation, envelope: envelope})
	r.mux.Unlock()
	if accepted {
		r.logger.Debug("queued until handshake", zap.Stringer("side", side), zap.String("method", envelope.Method), zap.String("id", envelope.IDString()))
		return false
	}
	r.logger.Warn("handshake queue full", zap.Stringer("side", side), zap.String("method", envelope.Method))
	if envelope.Kind() == schema.KindRequest {
		r.replyError(context.Background(), side, generation, envelope.Id, schema.NewQueueFull())
	}
	return false
}

func (r *Router) route(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	switch envelope.Kind() {
	case schema.KindRequest:
		r.handleRequest(ctx, side, generation, envelope)
	case schema.KindNotification:
		r.handleNotification(ctx, side, generation, envelope)
	case schema.KindResponse:
		r.handleResponse(ctx, side, envelope)
	case schema.KindInvalid:
		r.logger.Warn("dropping invalid envelope", zap.Stringer("side", side))
	}
}

func (r *Router) handleRequest(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	switch envelope.MethodKind() {
	case schema.MethodKindInitialize:
		r.initialize(ctx, side, generation, envelope)
	case schema.MethodKindPing:
		r.reply(ctx, side, generation, envelope.Id, struct{}{})
	case schema.MethodKindToolsList:
		r.reply(ctx, side, generation, envelope.Id, &schema.ListToolsResult{Tools: r.tools.Tools()})
	case schema.MethodKindToolsCall:
		r.inflight.Add(1)
		go func() {
			defer r.inflight.Done()
			r.callTool(context.WithoutCancel(ctx), side, generation, envelope)
		}()
	case schema.MethodRelay:
		r.relay(ctx, side, generation, envelope)
	}
}

func (r *Router) handleNotification(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	switch envelope.Method {
	case schema.MethodNotificationInitialized:
		r.logger.Debug("peer initialized", zap.Stringer("side", side))
		return
	case schema.MethodNotificationCancel:
		r.cancel(ctx, side, generation, envelope)
		return
	}
	target := side.Opposite()
	if r.endpoints[target] == nil {
		r.logger.Debug("dropping notification", zap.Stringer("side", side), zap.String("method", envelope.Method))
		return
	}
	r.send(ctx, target, 0, envelope)
}

func (r *Router) handleResponse(ctx context.Context, side Side, envelope *schema.Envelope) {
	entry, ok := r.translators[side].TranslateInboundRaw(envelope.Id)
	if !ok {
		r.logger.Warn("dropping unmatched response", zap.Stringer("side", side), zap.String("id", envelope.IDString()))
		return
	}
	forwarded := envelope.Clone()
	forwarded.Id = entry.Local
	r.send(ctx, side.Opposite(), entry.Generation, forwarded)
}

func (r *Router) reply(ctx context.Context, side Side, generation uint64, id []byte, result interface{}) {
	response, err := schema.NewResult(id, result)
	if err != nil {
		r.replyError(ctx, side, generation, id, jsonrpc.NewInternalError(err.Error(), nil))
		return
	}
	r.send(ctx, side, generation, response)
}

func (r *Router) replyError(ctx context.Context, side Side, generation uint64, id []byte, rpcErr *jsonrpc.Error) {
	r.send(ctx, side, generation, schema.NewErrorResponse(id, rpcErr))
}

func (r *Router) send(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	endpoint := r.endpoints[side]
	if endpoint == nil {
		r.logger.Debug("no endpoint", zap.Stringer("side", side), zap.String("method", envelope.Method))
		return
	}
	if err := endpoint.Send(ctx, generation, envelope); err != nil {
		if errors.Is(err, supervisor.ErrStaleConnection) {
			r.logger.Debug("discarding message for closed connection", zap.Stringer("side", side), zap.String("id", envelope.IDString()))
			return
		}
		r.logger.Warn("failed to send", zap.Stringer("side", side), zap.String("id", envelope.IDString()), zap.Error(err))
	}
}

// Wait blocks until in-flight tool calls complete.
func (r *Router) Wait() {
	r.inflight.Wait()
}

// Run sweeps orphaned relayed requests until ctx is done.
func (r *Router) Run(ctx context.Context) {
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// New creates a router.
func New(config *Config, tools Dispatcher, logger *zap.Logger) *Router {
	config.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		config:      config,
		tools:       tools,
		logger:      logger,
		translators: [2]*translator.Translator{translator.New(translator.DefaultStart), translator.New(translator.DefaultStart)},
		sessions:    [2]*session{{}, {}},
		calls:       [2]*collection.SyncMap[string, context.CancelFunc]{collection.NewSyncMap[string, context.CancelFunc](), collection.NewSyncMap[string, context.CancelFunc]()},
		queue:       newQueue(config.QueueSize),
	}
}
