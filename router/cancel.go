package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

// cancel handles notifications/cancelled: a running tool call is stopped, a
// relayed request is forgotten and the cancellation forwarded under the
// identifier the other side knows.
func (r *Router) cancel(ctx context.Context, side Side, generation uint64, envelope *schema.Envelope) {
	params := &schema.CancelledParams{}
	if err := json.Unmarshal(envelope.Params, params); err != nil || len(params.RequestId) == 0 {
		r.logger.Debug("dropping malformed cancellation", zap.Stringer("side", side))
		return
	}
	if stop, ok := r.calls[side].Take(callKey(generation, params.RequestId)); ok {
		r.logger.Info("cancelling tool call", zap.Stringer("side", side), zap.String("id", string(params.RequestId)), zap.String("reason", params.Reason))
		stop()
		return
	}
	target := side.Opposite()
	entry, ok := r.translators[target].Find(params.RequestId, generation)
	if !ok {
		r.logger.Debug("cancellation for unknown request", zap.Stringer("side", side), zap.String("id", string(params.RequestId)))
		return
	}
	if _, ok = r.translators[target].TranslateInbound(entry.Remote); !ok {
		return
	}
	forwarded, err := schema.NewNotification(schema.MethodNotificationCancel, &schema.CancelledParams{RequestId: schema.IntID(entry.Remote), Reason: params.Reason})
	if err != nil {
		return
	}
	r.send(ctx, target, 0, forwarded)
}

func callKey(generation uint64, id json.RawMessage) string {
	return fmt.Sprintf("%d/%s", generation, id)
}
