// Package conversation keeps a short, time bounded chat history.
package conversation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL        = time.Hour
	DefaultMaxEntries = 20
)

// Entry is one conversation turn.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is an ordered history bounded by age and count.
type Context struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	mux        sync.Mutex
	entries    []Entry
}

// Add appends a turn and evicts expired and excess entries.
func (c *Context) Add(role, content string) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.entries = append(c.entries, Entry{Role: role, Content: content, Timestamp: c.now()})
	c.evict()
}

// Entries returns a copy of live entries, oldest first.
func (c *Context) Entries() []Entry {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.evict()
	return append([]Entry(nil), c.entries...)
}

// Clear drops the history.
func (c *Context) Clear() {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.entries = nil
}

func (c *Context) evict() {
	threshold := c.now().Add(-c.ttl)
	start := 0
	for start < len(c.entries) && c.entries[start].Timestamp.Before(threshold) {
		start++
	}
	if excess := len(c.entries) - start - c.maxEntries; excess > 0 {
		start += excess
	}
	if start > 0 {
		c.entries = append([]Entry(nil), c.entries[start:]...)
	}
}

// Summary renders the last n entries, each content cut to width runes.
func (c *Context) Summary(n, width int) string {
	entries := c.Entries()
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	var builder strings.Builder
	for _, entry := range entries {
		content := []rune(entry.Content)
		if width > 0 && len(content) > width {
			content = append(content[:width], []rune("...")...)
		}
		builder.WriteString(fmt.Sprintf("[%s] %s: %s\n", entry.Timestamp.Format("15:04"), entry.Role, string(content)))
	}
	return builder.String()
}

// New creates a context; non positive arguments take defaults.
func New(ttl time.Duration, maxEntries int) *Context {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Context{ttl: ttl, maxEntries: maxEntries, now: time.Now}
}
