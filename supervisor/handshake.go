package supervisor

import (
	"context"
	"fmt"

	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

// initiate performs the client side of the MCP handshake on connection generation.
func (s *Supervisor) initiate(ctx context.Context, generation uint64) error {
	id := s.ids.Allocate()
	params := schema.NewInitializeParams(s.config.ProtocolVersion, s.config.ClientName, s.config.ClientVersion)
	request, err := schema.NewRequest(schema.IntID(id), schema.MethodInitialize, params)
	if err != nil {
		return err
	}
	response := make(chan *schema.Envelope, 1)
	s.handshake.Put(id, response)
	if err = s.Send(ctx, generation, request); err != nil {
		s.handshake.Delete(id)
		return fmt.Errorf("failed to send initialize: %w", err)
	}
	var result *schema.Envelope
	select {
	case result = <-response:
	case <-ctx.Done():
		s.handshake.Delete(id)
		return ctx.Err()
	}
	if result.Error != nil {
		return fmt.Errorf("initialize rejected: %v (%v)", result.Error.Message, result.Error.Code)
	}
	s.logger.Debug("initialize accepted", zap.ByteString("result", truncate(result.Result, 512)))
	notification, err := schema.NewNotification(schema.MethodNotificationInitialized, nil)
	if err != nil {
		return err
	}
	if err = s.Send(ctx, generation, notification); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}
	s.MarkReady(generation)
	return nil
}
