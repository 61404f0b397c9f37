// Package stdio exposes a line delimited JSON-RPC endpoint over a reader and
// a writer, typically the process standard streams.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/viant/mcpws/schema"
	"go.uber.org/zap"
)

// MaxLineSize bounds one inbound message.
const MaxLineSize = 4 * 1024 * 1024

// ErrClosed is returned by Send after the writer failed.
var ErrClosed = errors.New("stdio endpoint closed")

// Handler receives one parsed envelope.
type Handler func(ctx context.Context, envelope *schema.Envelope)

// Endpoint reads and writes one JSON value per line.
type Endpoint struct {
	reader io.Reader
	writer io.Writer
	logger *zap.Logger
	mux    sync.Mutex
	failed bool
}

// Serve dispatches inbound lines to handler until the reader is exhausted or ctx is done.
func (e *Endpoint) Serve(ctx context.Context, handler Handler) error {
	lines := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		reader := bufio.NewReaderSize(e.reader, 64*1024)
		for {
			line, oversized, err := readLine(reader)
			if oversized {
				e.logger.Warn("dropping oversized input", zap.Int("limit", MaxLineSize))
			} else if len(line) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				errs <- err
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			e.logger.Info("input closed")
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			envelope, err := schema.ParseEnvelope(line)
			if err != nil {
				e.logger.Warn("dropping malformed input", zap.Error(err), zap.ByteString("line", truncate(line, 200)))
				continue
			}
			handler(ctx, envelope)
		}
	}
}

// Send writes envelope as a single line; generation is ignored.
func (e *Endpoint) Send(_ context.Context, _ uint64, envelope *schema.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.failed {
		return ErrClosed
	}
	if _, err = e.writer.Write(append(data, '\n')); err != nil {
		e.failed = true
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// readLine returns the next line without its terminator; a line over MaxLineSize
// is consumed up to its newline and reported as oversized.
func readLine(reader *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	size := 0
	for {
		chunk, err := reader.ReadSlice('\n')
		size += len(chunk)
		if size <= MaxLineSize+1 {
			line = append(line, chunk...)
		} else {
			line = nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		if size > MaxLineSize+1 || len(line) > MaxLineSize {
			return nil, true, err
		}
		return line, false, err
	}
}

func truncate(data []byte, max int) []byte {
	if len(data) <= max {
		return data
	}
	return data[:max]
}

// New creates an endpoint.
func New(reader io.Reader, writer io.Writer, logger *zap.Logger) *Endpoint {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Endpoint{reader: reader, writer: writer, logger: logger}
}
