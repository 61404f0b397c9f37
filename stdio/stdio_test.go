package stdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mcpws/schema"
)

func TestEndpoint_Serve(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`not json`,
		`{"jsonrpc":"1.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":"a","result":{}}`,
	}, "\n")
	endpoint := New(strings.NewReader(input), io.Discard, nil)
	var received []*schema.Envelope
	err := endpoint.Serve(context.Background(), func(ctx context.Context, envelope *schema.Envelope) {
		received = append(received, envelope)
	})
	require.NoError(t, err)
	require.Len(t, received, 3)
	assert.EqualValues(t, schema.KindRequest, received[0].Kind())
	assert.EqualValues(t, "1", received[0].IDString())
	assert.EqualValues(t, schema.KindNotification, received[1].Kind())
	assert.EqualValues(t, schema.KindResponse, received[2].Kind())
}

func TestEndpoint_Serve_LongLine(t *testing.T) {
	payload := strings.Repeat("x", 1024*1024)
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"` + payload + `"}}}` + "\n"
	endpoint := New(strings.NewReader(input), io.Discard, nil)
	count := 0
	require.NoError(t, endpoint.Serve(context.Background(), func(ctx context.Context, envelope *schema.Envelope) {
		count++
		assert.Greater(t, len(envelope.Params), len(payload))
	}))
	assert.EqualValues(t, 1, count)
}

func TestEndpoint_Serve_OversizedLine(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
	}{
		{description: "over limit", input: strings.Repeat("x", MaxLineSize+1) + "\n" + `{"jsonrpc":"2.0","id":7,"method":"ping"}` + "\n"},
		{description: "far over limit", input: strings.Repeat("x", 3*MaxLineSize) + "\n" + `{"jsonrpc":"2.0","id":7,"method":"ping"}`},
	}
	for _, testCase := range testCases {
		endpoint := New(strings.NewReader(testCase.input), io.Discard, nil)
		var received []*schema.Envelope
		err := endpoint.Serve(context.Background(), func(ctx context.Context, envelope *schema.Envelope) {
			received = append(received, envelope)
		})
		require.NoError(t, err, testCase.description)
		require.Len(t, received, 1, testCase.description)
		assert.Equal(t, "ping", received[0].Method, testCase.description)
		assert.Equal(t, "7", received[0].IDString(), testCase.description)
	}
}

func TestReadLine_Limit(t *testing.T) {
	exact := strings.Repeat("x", MaxLineSize)
	reader := bufio.NewReaderSize(strings.NewReader(exact+"\n"+exact+"x"), 64*1024)
	line, oversized, err := readLine(reader)
	require.NoError(t, err)
	assert.False(t, oversized)
	assert.Len(t, line, MaxLineSize)
	_, oversized, err = readLine(reader)
	assert.True(t, oversized)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEndpoint_Serve_Cancel(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	endpoint := New(reader, io.Discard, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- endpoint.Serve(ctx, func(ctx context.Context, envelope *schema.Envelope) {})
	}()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestEndpoint_Send(t *testing.T) {
	buffer := &bytes.Buffer{}
	endpoint := New(strings.NewReader(""), buffer, nil)
	response, err := schema.NewResult([]byte("7"), map[string]string{"ok": "yes"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, endpoint.Send(context.Background(), 0, response))
		}()
	}
	wg.Wait()
	lines := strings.Split(strings.TrimRight(buffer.String(), "\n"), "\n")
	require.Len(t, lines, 10)
	for _, line := range lines {
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"result":{"ok":"yes"}}`, line)
	}

	broken := New(strings.NewReader(""), failingWriter{}, nil)
	assert.Error(t, broken.Send(context.Background(), 0, response))
	assert.ErrorIs(t, broken.Send(context.Background(), 0, response), ErrClosed)
}
