package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpws/schema"
)

func cancelled(t *testing.T, id string) *schema.Envelope {
	envelope, err := schema.NewNotification(schema.MethodNotificationCancel, &schema.CancelledParams{RequestId: json.RawMessage(id), Reason: "user aborted"})
	require.NoError(t, err)
	return envelope
}

func TestRouter_CancelRunningToolCall(t *testing.T) {
	remote := newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	ctx := context.Background()
	router.Handle(ctx, Remote, 1, request(t, "1", "initialize", nil))
	remote.next(t)
	router.OnReady(ctx, 1)

	router.Handle(ctx, Remote, 1, request(t, "9", "tools/call", map[string]interface{}{"name": "wait"}))
	assert.Eventually(t, func() bool { return router.calls[Remote].Len() == 1 }, time.Second, 5*time.Millisecond)

	router.Handle(ctx, Remote, 1, cancelled(t, "10"))
	assert.Equal(t, 1, router.calls[Remote].Len())

	router.Handle(ctx, Remote, 1, cancelled(t, "9"))
	router.Wait()
	assert.Equal(t, 0, router.calls[Remote].Len())
	remote.none(t)
}

func TestRouter_CancelRelayedRequest(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)

	router.Handle(ctx, Local, 1, request(t, `"q-1"`, "resources/read", nil))
	forwarded := remote.next(t)
	assert.Equal(t, "1001", string(forwarded.envelope.Id))

	router.Handle(ctx, Local, 1, cancelled(t, `"q-1"`))
	notification := remote.next(t)
	assert.Equal(t, schema.MethodNotificationCancel, notification.envelope.Method)
	params := &schema.CancelledParams{}
	require.NoError(t, json.Unmarshal(notification.envelope.Params, params))
	assert.Equal(t, "1001", string(params.RequestId))
	assert.Equal(t, "user aborted", params.Reason)
	assert.Equal(t, 0, router.Translator(Remote).Len())

	// the response racing the cancellation has no mapping left
	router.Handle(ctx, Remote, 1, response(t, "1001", map[string]interface{}{}))
	local.none(t)

	// unknown identifiers are ignored
	router.Handle(ctx, Local, 1, cancelled(t, "404"))
	remote.none(t)
}
