package router

import (
	"context"
	"encoding/json"

	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

// initialize answers initialize exactly once per connection.
func (r *Router) initialize(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	params := &schema.InitializeParams{}
	if len(envelope.Params) > 0 {
		if err := json.Unmarshal(envelope.Params, params); err != nil {
			r.logger.Debug("unreadable initialize params", zap.Stringer("side", side), zap.Error(err))
		}
	}
	r.mux.Lock()
	first := r.sessions[side].beginInitialize(generation, params)
	r.mux.Unlock()
	if !first {
		r.logger.Warn("repeated initialize", zap.Stringer("side", side), zap.Uint64("generation", generation))
		r.replyError(ctx, side, generation, envelope.Id, schema.NewAlreadyInitialized())
		return
	}
	r.logger.Info("initialize", zap.Stringer("side", side),
		zap.String("client", params.ClientInfo.Name),
		zap.String("clientVersion", params.ClientInfo.Version),
		zap.String("protocolVersion", params.ProtocolVersion))
	protocolVersion := r.config.ProtocolVersion
	if protocolVersion == "" && params.ProtocolVersion != "" {
		protocolVersion = params.ProtocolVersion
	}
	r.reply(ctx, side, generation, envelope.Id, schema.NewInitializeResult(protocolVersion, r.config.Name, r.config.Version))
	if side != Remote {
		return
	}
	r.mux.Lock()
	pending := r.queue.take(func(item *queued) bool { return item.side == Remote && item.generation == generation })
	r.mux.Unlock()
	for _, item := range pending {
		r.route(ctx, item.side, item.generation, item.envelope)
	}
	if r.onHandshake != nil {
		r.onHandshake(generation)
	}
}

// callTool runs a tool and always answers with a text content result.
func (r *Router) callTool(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	params := &schema.CallToolParams{}
	if len(envelope.Params) > 0 {
		if err := json.Unmarshal(envelope.Params, params); err != nil {
			result := schema.NewTextResult("invalid tools/call params: " + err.Error())
			result.IsError = true
			r.reply(ctx, side, generation, envelope.Id, result)
			return
		}
	}
	r.logger.Debug("tools/call", zap.Stringer("side", side), zap.String("tool", params.Name), zap.String("id", envelope.IDString()))
	key := callKey(generation, envelope.Id)
	ctx, cancel := context.WithCancel(ctx)
	r.calls[side].Put(key, cancel)
	defer func() {
		r.calls[side].Delete(key)
		cancel()
	}()
	result := r.tools.Call(ctx, params)
	if ctx.Err() != nil {
		r.logger.Debug("tool call cancelled", zap.Stringer("side", side), zap.String("tool", params.Name), zap.String("id", envelope.IDString()))
		return
	}
	r.reply(ctx, side, generation, envelope.Id, result)
}

// relay forwards a request the router does not own to the other side.
func (r *Router) relay(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	target := side.Opposite()
	endpoint := r.endpoints[target]
	if endpoint == nil {
		r.replyError(ctx, side, generation, envelope.Id, schema.NewMethodNotSupported(envelope.Method))
		return
	}
	ids := r.translators[target]
	remoteID := ids.TranslateOutbound(envelope.Id, envelope.Method, generation)
	forwarded := envelope.Clone()
	forwarded.Id = schema.IntID(remoteID)
	if err := endpoint.Send(ctx, 0, forwarded); err != nil {
		if _, ok := ids.TranslateInbound(remoteID); ok {
			r.logger.Warn("failed to relay", zap.Stringer("to", target), zap.String("method", envelope.Method), zap.Error(err))
			r.replyError(ctx, side, generation, envelope.Id, schema.NewNotConnected())
		}
		return
	}
	r.logger.Debug("relayed", zap.Stringer("to", target), zap.String("method", envelope.Method), zap.String("id", envelope.IDString()), zap.Uint64("as", remoteID))
}

// OnMessage routes an envelope from the remote peer.
func (r *Router) OnMessage(ctx context.Context, generation uint64, envelope *schema.Envelope) {
	r.Handle(ctx, Remote, generation, envelope)
}

// OnReady opens the remote session and replays queued messages in arrival order.
func (r *Router) OnReady(ctx context.Context, generation uint64) {
	r.ordering.Lock()
	defer r.ordering.Unlock()
	r.mux.Lock()
	r.sessions[Remote].markOpen(generation)
	r.ready = true
	pending := r.queue.take(func(item *queued) bool { return true })
	r.mux.Unlock()
	if len(pending) > 0 {
		r.logger.Info("replaying queued messages", zap.Int("count", len(pending)))
	}
	for _, item := range pending {
		if item.side == Remote && item.generation != generation {
			continue
		}
		r.route(ctx, item.side, item.generation, item.envelope)
	}
}

// OnDisconnect fails requests awaiting the lost remote connection so no local caller hangs.
func (r *Router) OnDisconnect(generation uint64, err error) {
	r.mux.Lock()
	r.sessions[Remote].reset(generation)
	dropped := r.queue.take(func(item *queued) bool { return item.side == Remote && item.generation == generation })
	r.mux.Unlock()
	pending := r.translators[Remote].Drain()
	abandoned := r.translators[Local].DrainGeneration(generation)
	if len(pending) > 0 || len(dropped) > 0 || len(abandoned) > 0 {
		r.logger.Info("failing pending requests", zap.Int("pending", len(pending)), zap.Int("droppedQueued", len(dropped)), zap.Int("abandoned", len(abandoned)), zap.Error(err))
	}
	for _, entry := range pending {
		r.replyError(context.Background(), Local, entry.Generation, entry.Local, schema.NewConnectionLost())
	}
}

// Sweep fails relayed requests whose response never arrived.
func (r *Router) Sweep(ctx context.Context) {
	for _, target := range []Side{Local, Remote} {
		for _, entry := range r.translators[target].Sweep(r.config.RequestTimeout) {
			r.logger.Warn("relayed request timed out", zap.Stringer("to", target), zap.String("method", entry.Method), zap.Uint64("id", entry.Remote))
			r.replyError(ctx, target.Opposite(), entry.Generation, entry.Local, schema.NewRequestTimeout())
		}
	}
}
