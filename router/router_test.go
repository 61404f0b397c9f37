package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpws/schema"
)

type sent struct {
	generation uint64
	envelope   *schema.Envelope
}

type fakeEndpoint struct {
	out chan sent
	mux sync.Mutex
	err error
}

func (e *fakeEndpoint) Send(ctx context.Context, generation uint64, envelope *schema.Envelope) error {
	e.mux.Lock()
	err := e.err
	e.mux.Unlock()
	if err != nil {
		return err
	}
	e.out <- sent{generation: generation, envelope: envelope}
	return nil
}

func (e *fakeEndpoint) setErr(err error) {
	e.mux.Lock()
	e.err = err
	e.mux.Unlock()
}

func (e *fakeEndpoint) next(t *testing.T) sent {
	t.Helper()
	select {
	case item := <-e.out:
		return item
	case <-time.After(2 * time.Second):
		t.Fatal("expected a message")
	}
	return sent{}
}

func (e *fakeEndpoint) none(t *testing.T) {
	t.Helper()
	select {
	case item := <-e.out:
		t.Fatalf("unexpected message: %+v", item.envelope)
	case <-time.After(50 * time.Millisecond):
	}
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{out: make(chan sent, 32)}
}

type fakeTools struct {
	handlers map[string]func(args map[string]interface{}) string
}

func (f *fakeTools) Tools() []schema.Tool {
	return []schema.Tool{{Name: "read_file", InputSchema: schema.ToolInputSchema{Type: "object"}}}
}

func (f *fakeTools) Call(ctx context.Context, params *schema.CallToolParams) *schema.CallToolResult {
	if params.Name == "wait" {
		<-ctx.Done()
		return schema.NewTextResult("stopped")
	}
	handler, ok := f.handlers[params.Name]
	if !ok {
		return schema.NewTextResult("unknown tool: " + params.Name)
	}
	return schema.NewTextResult(handler(params.Arguments))
}

func newFakeTools() *fakeTools {
	return &fakeTools{handlers: map[string]func(args map[string]interface{}) string{
		"read_file": func(args map[string]interface{}) string {
			return "read_file failed: read failed: " + args["path"].(string) + ": no such file"
		},
		"slow": func(args map[string]interface{}) string {
			time.Sleep(100 * time.Millisecond)
			return "slow done"
		},
		"fast": func(args map[string]interface{}) string {
			return "fast done"
		},
	}}
}

func request(t *testing.T, id string, method string, params interface{}) *schema.Envelope {
	envelope, err := schema.NewRequest(json.RawMessage(id), method, params)
	require.NoError(t, err)
	return envelope
}

func response(t *testing.T, id string, result interface{}) *schema.Envelope {
	envelope, err := schema.NewResult(json.RawMessage(id), result)
	require.NoError(t, err)
	return envelope
}

func textOf(t *testing.T, envelope *schema.Envelope) string {
	result := &schema.CallToolResult{}
	require.NoError(t, json.Unmarshal(envelope.Result, result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result.Content[0].Text
}

func TestRouter_ServeEndToEnd(t *testing.T) {
	remote := newFakeEndpoint()
	router := New(&Config{Name: "bridge", Version: "1.0"}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	var handshakes []uint64
	router.OnHandshake(func(generation uint64) { handshakes = append(handshakes, generation) })
	ctx := context.Background()

	router.Handle(ctx, Remote, 1, request(t, "1", "initialize", map[string]interface{}{"protocolVersion": "2024-11-05"}))
	reply := remote.next(t)
	assert.Equal(t, "1", string(reply.envelope.Id))
	assert.EqualValues(t, 1, reply.generation)
	initResult := &schema.InitializeResult{}
	require.NoError(t, json.Unmarshal(reply.envelope.Result, initResult))
	assert.Equal(t, "2024-11-05", initResult.ProtocolVersion)
	assert.Equal(t, "bridge", initResult.ServerInfo.Name)
	assert.NotNil(t, initResult.Capabilities.Tools)
	assert.Equal(t, []uint64{1}, handshakes)

	router.Handle(ctx, Remote, 1, request(t, "2", "tools/list", nil))
	reply = remote.next(t)
	listed := &schema.ListToolsResult{}
	require.NoError(t, json.Unmarshal(reply.envelope.Result, listed))
	require.Len(t, listed.Tools, 1)
	assert.Equal(t, "read_file", listed.Tools[0].Name)

	router.Handle(ctx, Remote, 1, request(t, "3", "tools/call", map[string]interface{}{"name": "read_file", "arguments": map[string]interface{}{"path": "/tmp/missing"}}))
	reply = remote.next(t)
	assert.Equal(t, "3", string(reply.envelope.Id))
	assert.Contains(t, textOf(t, reply.envelope), "read failed")

	router.Handle(ctx, Remote, 1, request(t, "4", "tools/call", map[string]interface{}{"name": "does_not_exist", "arguments": map[string]interface{}{}}))
	reply = remote.next(t)
	assert.Nil(t, reply.envelope.Error)
	assert.Contains(t, textOf(t, reply.envelope), "unknown tool")

	router.Handle(ctx, Remote, 1, request(t, "5", "ping", nil))
	reply = remote.next(t)
	assert.JSONEq(t, `{}`, string(reply.envelope.Result))

	router.Handle(ctx, Remote, 1, request(t, "6", "resources/list", nil))
	reply = remote.next(t)
	require.NotNil(t, reply.envelope.Error)
	assert.EqualValues(t, -32601, reply.envelope.Error.Code)

	router.Handle(ctx, Remote, 1, request(t, "7", "initialize", nil))
	reply = remote.next(t)
	require.NotNil(t, reply.envelope.Error)
	assert.EqualValues(t, -32600, reply.envelope.Error.Code)
	assert.Equal(t, []uint64{1}, handshakes)

	// a new connection starts a new session
	router.OnDisconnect(1, errors.New("closed"))
	router.Handle(ctx, Remote, 2, request(t, "1", "initialize", nil))
	reply = remote.next(t)
	assert.Nil(t, reply.envelope.Error)
	assert.Equal(t, []uint64{1, 2}, handshakes)
}

func TestRouter_RemoteQueuedBeforeInitialize(t *testing.T) {
	remote := newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	ctx := context.Background()

	router.Handle(ctx, Remote, 1, request(t, "10", "tools/list", nil))
	router.Handle(ctx, Remote, 1, request(t, "11", "ping", nil))
	remote.none(t)

	router.Handle(ctx, Remote, 1, request(t, "1", "initialize", nil))
	assert.Equal(t, "1", string(remote.next(t).envelope.Id))
	assert.Equal(t, "10", string(remote.next(t).envelope.Id))
	assert.Equal(t, "11", string(remote.next(t).envelope.Id))
}

func TestRouter_RelayTranslatesIdentifiers(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()

	// queued until the remote connection is ready
	router.Handle(ctx, Local, 1, request(t, `"abc"`, "resources/list", nil))
	remote.none(t)
	router.OnReady(ctx, 1)

	forwarded := remote.next(t)
	assert.Equal(t, "1001", string(forwarded.envelope.Id))
	assert.Equal(t, "resources/list", forwarded.envelope.Method)

	router.Handle(ctx, Remote, 1, response(t, "1001", map[string]interface{}{"resources": []interface{}{}}))
	answered := local.next(t)
	assert.Equal(t, `"abc"`, string(answered.envelope.Id))
	assert.Contains(t, string(answered.envelope.Result), "resources")

	// a late duplicate has no mapping left
	router.Handle(ctx, Remote, 1, response(t, "1001", map[string]interface{}{}))
	local.none(t)

	// remote initiated requests are relayed to the local side the same way
	router.Handle(ctx, Remote, 1, request(t, "77", "sampling/createMessage", nil))
	toLocal := local.next(t)
	assert.Equal(t, "1001", string(toLocal.envelope.Id))
	router.Handle(ctx, Local, 1, response(t, "1001", map[string]interface{}{"ok": true}))
	back := remote.next(t)
	assert.Equal(t, "77", string(back.envelope.Id))
	assert.EqualValues(t, 1, back.generation)
}

func TestRouter_RelayNotConnected(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)
	remote.setErr(errors.New("not connected"))

	router.Handle(ctx, Local, 1, request(t, "5", "resources/read", nil))
	answered := local.next(t)
	require.NotNil(t, answered.envelope.Error)
	assert.EqualValues(t, -32000, answered.envelope.Error.Code)
	assert.Equal(t, 0, router.Translator(Remote).Len())
}

func TestRouter_DisconnectFailsPending(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)

	router.Handle(ctx, Local, 1, request(t, "8", "prompts/list", nil))
	remote.next(t)
	router.OnDisconnect(1, errors.New("read failed"))

	answered := local.next(t)
	assert.Equal(t, "8", string(answered.envelope.Id))
	require.NotNil(t, answered.envelope.Error)
	assert.Equal(t, "connection lost", answered.envelope.Error.Message)

	// the late response from the dead connection is dropped
	router.Handle(ctx, Remote, 1, response(t, "1001", map[string]interface{}{}))
	local.none(t)
}

func TestRouter_DisconnectForgetsRelayedToLocal(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)

	router.Handle(ctx, Remote, 1, request(t, "\"r1\"", "sampling/createMessage", nil))
	relayed := local.next(t)
	assert.Equal(t, 1, router.Translator(Local).Len())

	router.OnDisconnect(1, errors.New("read failed"))
	assert.Equal(t, 0, router.Translator(Local).Len())
	remote.none(t)

	router.Handle(ctx, Local, 1, response(t, string(relayed.envelope.Id), map[string]interface{}{}))
	remote.none(t)
}

func TestRouter_QueueRacesReady(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 500; i++ {
		remote := newFakeEndpoint()
		router := New(&Config{}, newFakeTools(), nil)
		router.SetEndpoint(Remote, remote)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			router.Handle(ctx, Remote, 1, request(t, "5", "ping", nil))
		}()
		go func() {
			defer wg.Done()
			router.OnReady(ctx, 1)
		}()
		wg.Wait()
		reply := remote.next(t)
		require.Equal(t, "5", string(reply.envelope.Id))
		router.mux.Lock()
		require.Equal(t, 0, router.queue.len())
		router.mux.Unlock()
	}
}

func TestRouter_Notifications(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)

	initialized, _ := schema.NewNotification(schema.MethodNotificationInitialized, nil)
	router.Handle(ctx, Local, 1, initialized)
	remote.none(t)

	progress, _ := schema.NewNotification("notifications/progress", map[string]interface{}{"progress": 1})
	router.Handle(ctx, Remote, 1, progress)
	forwarded := local.next(t)
	assert.False(t, forwarded.envelope.HasID())
	assert.Equal(t, "notifications/progress", forwarded.envelope.Method)
	remote.none(t)
}

func TestRouter_NotificationWithoutPeerIsDropped(t *testing.T) {
	remote := newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	ctx := context.Background()
	router.OnReady(ctx, 1)
	progress, _ := schema.NewNotification("notifications/progress", nil)
	router.Handle(ctx, Remote, 1, progress)
	remote.none(t)
}

func TestRouter_QueueFull(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{QueueSize: 1}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()

	router.Handle(ctx, Local, 1, request(t, "1", "tools/list", nil))
	router.Handle(ctx, Local, 1, request(t, "2", "tools/list", nil))
	rejected := local.next(t)
	assert.Equal(t, "2", string(rejected.envelope.Id))
	require.NotNil(t, rejected.envelope.Error)
	assert.EqualValues(t, -32002, rejected.envelope.Error.Code)

	router.OnReady(ctx, 1)
	replayed := local.next(t)
	assert.Equal(t, "1", string(replayed.envelope.Id))
	assert.Nil(t, replayed.envelope.Error)
}

func TestRouter_SweepTimesOutOrphans(t *testing.T) {
	remote, local := newFakeEndpoint(), newFakeEndpoint()
	router := New(&Config{RequestTimeout: time.Millisecond}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	router.SetEndpoint(Local, local)
	ctx := context.Background()
	router.OnReady(ctx, 1)

	router.Handle(ctx, Local, 1, request(t, "9", "completion/complete", nil))
	remote.next(t)
	time.Sleep(5 * time.Millisecond)
	router.Sweep(ctx)
	answered := local.next(t)
	require.NotNil(t, answered.envelope.Error)
	assert.EqualValues(t, -32001, answered.envelope.Error.Code)
}

func TestRouter_ConcurrentToolCallsKeepIdentifiers(t *testing.T) {
	remote := newFakeEndpoint()
	router := New(&Config{}, newFakeTools(), nil)
	router.SetEndpoint(Remote, remote)
	ctx := context.Background()
	router.Handle(ctx, Remote, 1, request(t, "1", "initialize", nil))
	remote.next(t)

	router.Handle(ctx, Remote, 1, request(t, "20", "tools/call", map[string]interface{}{"name": "slow"}))
	router.Handle(ctx, Remote, 1, request(t, "21", "tools/call", map[string]interface{}{"name": "fast"}))
	// ping is answered while the slow tool is still running
	router.Handle(ctx, Remote, 1, request(t, "22", "ping", nil))

	results := map[string]string{}
	for i := 0; i < 3; i++ {
		item := remote.next(t)
		if item.envelope.Id != nil && string(item.envelope.Id) != "22" {
			results[string(item.envelope.Id)] = textOf(t, item.envelope)
		}
	}
	router.Wait()
	assert.Equal(t, map[string]string{"20": "slow done", "21": "fast done"}, results)
}
