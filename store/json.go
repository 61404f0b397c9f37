// Package store persists tool state as JSON documents or appendable text
// files. Each store serializes its own read-modify-write cycles.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

const fileMode = 0o644

// JSONStore keeps a JSON array of T at URL.
type JSONStore[T any] struct {
	URL     string
	fs      afs.Service
	options []storage.Option
	mux     sync.Mutex
}

// Load returns stored items; a missing document yields an empty list.
func (s *JSONStore[T]) Load(ctx context.Context) ([]T, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.load(ctx)
}

func (s *JSONStore[T]) load(ctx context.Context) ([]T, error) {
	exists, err := s.fs.Exists(ctx, s.URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to check %v: %w", s.URL, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, s.URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", s.URL, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []T
	if err = json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %v: %w", s.URL, err)
	}
	return items, nil
}

// Update applies fn to the stored items and persists the result atomically.
func (s *JSONStore[T]) Update(ctx context.Context, fn func(items []T) ([]T, error)) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	if items, err = fn(items); err != nil {
		return err
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(ctx, s.fs, s.URL, append(data, '\n'), s.options)
}

// Append adds one item.
func (s *JSONStore[T]) Append(ctx context.Context, item T) error {
	return s.Update(ctx, func(items []T) ([]T, error) {
		return append(items, item), nil
	})
}

func writeAtomic(ctx context.Context, fs afs.Service, URL string, data []byte, options []storage.Option) error {
	tmp := URL + ".tmp"
	if err := fs.Upload(ctx, tmp, fileMode, bytes.NewReader(data), options...); err != nil {
		return fmt.Errorf("failed to write %v: %w", tmp, err)
	}
	if err := fs.Move(ctx, tmp, URL, options...); err != nil {
		return fmt.Errorf("failed to replace %v: %w", URL, err)
	}
	return nil
}

// NewJSON creates a JSON store.
func NewJSON[T any](fs afs.Service, URL string, options ...storage.Option) *JSONStore[T] {
	if fs == nil {
		fs = afs.New()
	}
	return &JSONStore[T]{URL: URL, fs: fs, options: options}
}
