package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
)

// TextStore appends text to a document.
type TextStore struct {
	URL     string
	fs      afs.Service
	options []storage.Option
	mux     sync.Mutex
}

// Append writes text at the end of the document, creating it if needed.
func (s *TextStore) Append(ctx context.Context, text string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var data []byte
	exists, err := s.fs.Exists(ctx, s.URL, s.options...)
	if err != nil {
		return fmt.Errorf("failed to check %v: %w", s.URL, err)
	}
	if exists {
		if data, err = s.fs.DownloadWithURL(ctx, s.URL, s.options...); err != nil {
			return fmt.Errorf("failed to read %v: %w", s.URL, err)
		}
	}
	data = append(data, text...)
	return writeAtomic(ctx, s.fs, s.URL, data, s.options)
}

// Read returns the document; a missing document is empty.
func (s *TextStore) Read(ctx context.Context) (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	exists, err := s.fs.Exists(ctx, s.URL, s.options...)
	if err != nil || !exists {
		return "", err
	}
	data, err := s.fs.DownloadWithURL(ctx, s.URL, s.options...)
	return string(data), err
}

// NewText creates a text store.
func NewText(fs afs.Service, URL string, options ...storage.Option) *TextStore {
	if fs == nil {
		fs = afs.New()
	}
	return &TextStore{URL: URL, fs: fs, options: options}
}
