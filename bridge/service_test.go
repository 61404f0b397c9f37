package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpws/schema"
	"github.com/viant/mcpws/supervisor"
)

// endpoint is a websocket peer playing the remote MCP client.
type endpoint struct {
	server   *httptest.Server
	incoming chan *schema.Envelope
	outgoing chan string
}

func (e *endpoint) URL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/mcp/"
}

func (e *endpoint) next(t *testing.T) *schema.Envelope {
	select {
	case envelope := <-e.incoming:
		return envelope
	case <-time.After(3 * time.Second):
		t.Fatal("no message from bridge")
	}
	return nil
}

func newEndpoint(t *testing.T) *endpoint {
	ret := &endpoint{incoming: make(chan *schema.Envelope, 16), outgoing: make(chan string, 16)}
	upgrader := websocket.Upgrader{}
	ret.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		go func() {
			for message := range ret.outgoing {
				if conn.WriteMessage(websocket.TextMessage, []byte(message)) != nil {
					return
				}
			}
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if envelope, err := schema.ParseEnvelope(data); err == nil {
				ret.incoming <- envelope
			}
		}
	}))
	t.Cleanup(ret.server.Close)
	return ret
}

func testOptions(t *testing.T, URL string) *Options {
	return &Options{
		URL:              URL,
		Mode:             ModeServe,
		Heartbeat:        time.Hour,
		HandshakeTimeout: 2 * time.Second,
		ReconnectDelay:   20 * time.Millisecond,
		MaxReconnects:    2,
		Handshake:        "await",
		Workspace:        t.TempDir(),
		Name:             "mcpws",
		Version:          "test",
	}
}

func TestOptions_Validate(t *testing.T) {
	options := testOptions(t, "")
	assert.ErrorContains(t, options.Validate(), "XIAOZHI_MCP_URL")
	options.URL = "ws://host"
	assert.NoError(t, options.Validate())
	options.Mode = "proxy"
	assert.Error(t, options.Validate())
}

func TestNew_RejectsExpiredToken(t *testing.T) {
	options := testOptions(t, "wss://host/mcp/")
	options.Token = signedToken(t, map[string]interface{}{"exp": time.Now().Add(-time.Hour).Unix()})
	_, err := New(context.Background(), options, nil, nil, nil)
	assert.ErrorContains(t, err, "expired")
}

func TestService_Serve(t *testing.T) {
	remote := newEndpoint(t)
	service, err := New(context.Background(), testOptions(t, remote.URL()), nil, nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	remote.outgoing <- `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"xiaozhi","version":"1"}}}`
	response := remote.next(t)
	assert.EqualValues(t, "1", string(response.Id))
	initialize := &schema.InitializeResult{}
	require.NoError(t, json.Unmarshal(response.Result, initialize))
	assert.EqualValues(t, "mcpws", initialize.ServerInfo.Name)
	assert.EqualValues(t, "2024-11-05", initialize.ProtocolVersion)

	remote.outgoing <- `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	remote.outgoing <- `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
	response = remote.next(t)
	assert.EqualValues(t, "2", string(response.Id))
	tools := &schema.ListToolsResult{}
	require.NoError(t, json.Unmarshal(response.Result, tools))
	assert.Len(t, tools.Tools, 15)

	remote.outgoing <- `{"jsonrpc":"2.0","id":"c-3","method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`
	response = remote.next(t)
	assert.EqualValues(t, `"c-3"`, string(response.Id))
	result := &schema.CallToolResult{}
	require.NoError(t, json.Unmarshal(response.Result, result))
	assert.True(t, result.IsError)
	assert.EqualValues(t, "unknown tool: no_such_tool", result.Text())

	remote.outgoing <- `{"jsonrpc":"2.0","id":4,"method":"resources/list"}`
	response = remote.next(t)
	require.NotNil(t, response.Error)
	assert.EqualValues(t, -32601, response.Error.Code)

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestService_Relay(t *testing.T) {
	remote := newEndpoint(t)
	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()
	options := testOptions(t, remote.URL())
	options.Mode = ModeRelay
	service, err := New(context.Background(), options, nil, stdinReader, stdoutWriter)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- service.Run(context.Background()) }()

	remote.outgoing <- `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	assert.EqualValues(t, "1", string(remote.next(t).Id))

	remote.outgoing <- `{"jsonrpc":"2.0","id":"abc","method":"resources/list"}`
	lines := bufio.NewReader(stdoutReader)
	line, err := lines.ReadBytes('\n')
	require.NoError(t, err)
	relayed, err := schema.ParseEnvelope(line)
	require.NoError(t, err)
	assert.EqualValues(t, "resources/list", relayed.Method)
	assert.EqualValues(t, "1001", string(relayed.Id))

	_, err = stdinWriter.Write([]byte(`{"jsonrpc":"2.0","id":1001,"result":{"resources":[]}}` + "\n"))
	require.NoError(t, err)
	response := remote.next(t)
	assert.EqualValues(t, `"abc"`, string(response.Id))
	assert.JSONEq(t, `{"resources":[]}`, string(response.Result))

	require.NoError(t, stdinWriter.Close())
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not stop after input closed")
	}
}

func TestService_Abandoned(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	URL := "ws" + strings.TrimPrefix(server.URL, "http") + "/mcp/"
	server.Close()
	service, err := New(context.Background(), testOptions(t, URL), nil, nil, nil)
	require.NoError(t, err)
	err = service.Run(context.Background())
	assert.ErrorIs(t, err, supervisor.ErrAbandoned)
}
