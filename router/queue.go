package router

import "github.com/viant/mcpws/schema"

type queued struct {
	side       Side
	generation uint64
	envelope   *schema.Envelope
}

// queue is a bounded FIFO of messages received before the handshake.
type queue struct {
	limit int
	items []*queued
}

// push returns false when the queue is full.
func (q *queue) push(item *queued) bool {
	if len(q.items) >= q.limit {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// take removes and returns matching items in arrival order.
func (q *queue) take(match func(item *queued) bool) []*queued {
	var taken []*queued
	kept := q.items[:0]
	for _, item := range q.items {
		if match(item) {
			taken = append(taken, item)
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	return taken
}

func (q *queue) len() int {
	return len(q.items)
}

func newQueue(limit int) *queue {
	return &queue{limit: limit}
}
