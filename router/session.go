package router

import (
	"sync"

	"github.com/viant/mcpws/schema"
)

// session tracks the handshake of the current connection on one side.
type session struct {
	mux         sync.Mutex
	generation  uint64
	initialized bool
	open        bool
	closed      uint64
	client      *schema.InitializeParams
}

// sync resets the session when a new connection is observed.
func (s *session) sync(generation uint64) {
	if s.generation != generation {
		s.generation = generation
		s.initialized = false
		s.open = false
		s.client = nil
	}
}

// beginInitialize reports whether initialize is the first on this connection.
func (s *session) beginInitialize(generation uint64, client *schema.InitializeParams) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.sync(generation)
	if s.initialized {
		return false
	}
	s.initialized = true
	s.open = true
	s.client = client
	return true
}

func (s *session) markOpen(generation uint64) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.sync(generation)
	s.open = true
}

func (s *session) isOpen(generation uint64) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.generation == generation && s.open
}

// isClosed reports whether generation belongs to a connection already torn down.
func (s *session) isClosed(generation uint64) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return generation <= s.closed
}

func (s *session) reset(generation uint64) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if generation > s.closed {
		s.closed = generation
	}
	if s.generation == generation {
		s.initialized = false
		s.open = false
		s.client = nil
	}
}
