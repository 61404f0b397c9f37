// Package translator maps request identifiers between two independent
// JSON-RPC identifier spaces.
//
// A Translator is owned by one direction of the bridge: requests entering the
// other transport get a freshly allocated numeric identifier, and the matching
// response is mapped back to the caller's original identifier exactly once.
package translator

import (
	"bytes"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/viant/mcpws/internal/collection"
	"github.com/viant/mcpws/internal/conv"
)

// DefaultStart is the first identifier handed out.
const DefaultStart = 1000

// Entry is one identifier mapping.
type Entry struct {
	Local  json.RawMessage
	Remote uint64
	Method string
	// Generation identifies the caller's connection.
	Generation uint64
	CreatedAt  time.Time
}

// Translator holds the mappings of one direction.
type Translator struct {
	counter uint64
	entries *collection.SyncMap[uint64, *Entry]
}

// Allocate returns a fresh identifier that is never reused.
func (t *Translator) Allocate() uint64 {
	return atomic.AddUint64(&t.counter, 1)
}

// TranslateOutbound records localID of a caller on connection generation and
// returns the identifier to use on the other side.
func (t *Translator) TranslateOutbound(localID json.RawMessage, method string, generation uint64) uint64 {
	remote := t.Allocate()
	local := make(json.RawMessage, len(localID))
	copy(local, localID)
	t.entries.Put(remote, &Entry{Local: local, Remote: remote, Method: method, Generation: generation, CreatedAt: time.Now()})
	return remote
}

// TranslateInbound returns the caller identifier for remoteID and forgets the mapping.
func (t *Translator) TranslateInbound(remoteID uint64) (*Entry, bool) {
	return t.entries.Take(remoteID)
}

// TranslateInboundRaw is TranslateInbound for an identifier still in wire form.
func (t *Translator) TranslateInboundRaw(remoteID json.RawMessage) (*Entry, bool) {
	id, ok := conv.AsUint64(remoteID)
	if !ok {
		return nil, false
	}
	return t.TranslateInbound(id)
}

// Find returns the mapping recorded for localID of a caller on connection generation.
func (t *Translator) Find(localID json.RawMessage, generation uint64) (*Entry, bool) {
	var found *Entry
	t.entries.Range(func(_ uint64, entry *Entry) bool {
		if entry.Generation == generation && bytes.Equal(entry.Local, localID) {
			found = entry
			return false
		}
		return true
	})
	return found, found != nil
}

// Sweep removes and returns entries older than maxAge.
func (t *Translator) Sweep(maxAge time.Duration) []*Entry {
	var orphans []*Entry
	threshold := time.Now().Add(-maxAge)
	t.entries.Range(func(key uint64, entry *Entry) bool {
		if entry.CreatedAt.Before(threshold) {
			if taken, ok := t.entries.Take(key); ok {
				orphans = append(orphans, taken)
			}
		}
		return true
	})
	return orphans
}

// Drain removes and returns all entries.
func (t *Translator) Drain() []*Entry {
	var result []*Entry
	for _, entry := range t.entries.Clear() {
		result = append(result, entry)
	}
	return result
}

// DrainGeneration removes and returns entries whose caller was on connection generation.
func (t *Translator) DrainGeneration(generation uint64) []*Entry {
	var result []*Entry
	t.entries.Range(func(key uint64, entry *Entry) bool {
		if entry.Generation == generation {
			if taken, ok := t.entries.Take(key); ok {
				result = append(result, taken)
			}
		}
		return true
	})
	return result
}

// Len returns the number of outstanding mappings.
func (t *Translator) Len() int {
	return t.entries.Len()
}

// New creates a translator whose first allocated identifier is start+1.
func New(start uint64) *Translator {
	return &Translator{counter: start, entries: collection.NewSyncMap[uint64, *Entry]()}
}
